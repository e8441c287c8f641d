package quads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSource identifies the pixels of a texture. Exactly one of Image,
// Data or Path is expected to be set; Path is resolved in FS, or on the host
// file system when FS is nil.
type ImageSource struct {
	Name  string
	FS    fs.FS
	Path  string
	Data  []byte
	Image image.Image
}

// FileSource names an image file inside fsys. A nil fsys reads from disk.
func FileSource(fsys fs.FS, path string) ImageSource {
	return ImageSource{Name: path, FS: fsys, Path: path}
}

// BytesSource wraps encoded image bytes.
func BytesSource(name string, data []byte) ImageSource {
	return ImageSource{Name: name, Data: data}
}

// ImageValue wraps an already decoded image.
func ImageValue(name string, img image.Image) ImageSource {
	return ImageSource{Name: name, Image: img}
}

func (s ImageSource) String() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Path != "":
		return s.Path
	case s.Image != nil:
		return "<image>"
	default:
		return "<bytes>"
	}
}

// Decoder turns an ImageSource into a bitmap. Implementations must be safe
// for concurrent use; LoadTextures decodes in parallel.
type Decoder interface {
	Decode(ctx context.Context, src ImageSource) (image.Image, error)
}

// ImageDecoder decodes PNG, JPEG, GIF, BMP, TIFF and WebP.
type ImageDecoder struct{}

// Decode implements Decoder.
func (ImageDecoder) Decode(ctx context.Context, src ImageSource) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.Image != nil {
		return src.Image, nil
	}
	data := src.Data
	if data == nil {
		if src.Path == "" {
			return nil, errors.New("empty image source")
		}
		var err error
		if src.FS != nil {
			data, err = fs.ReadFile(src.FS, src.Path)
		} else {
			data, err = os.ReadFile(src.Path)
		}
		if err != nil {
			return nil, err
		}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("%s image has no pixels", format)
	}
	return img, nil
}
