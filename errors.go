package quads

import (
	"errors"
	"fmt"

	"github.com/phanxgames/quads/gpu"
)

var (
	ErrNotLoaded       = errors.New("quads: texture not loaded")
	ErrAlreadyLoaded   = errors.New("quads: texture already loaded")
	ErrInvalidViewport = errors.New("quads: invalid viewport size")
	ErrDecode          = errors.New("quads: image decode failed")
	ErrFrameSubmission = errors.New("quads: frame submission failed")
	ErrNilTexture      = errors.New("quads: nil texture")
	ErrReleased        = errors.New("quads: released")
	ErrEmptyConfig     = errors.New("quads: empty config file")

	// ErrTerminate ends a Run loop without reporting an error when returned
	// from a Stage update function.
	ErrTerminate = errors.New("quads: terminate")
)

// InitError reports a failure while setting up the render subsystem. It is
// fatal: nothing has been drawn and the caller should abort startup.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string { return fmt.Sprintf("quads: init %s: %v", e.Op, e.Err) }
func (e *InitError) Unwrap() error { return e.Err }

// LoadErrorKind classifies texture load failures.
type LoadErrorKind uint8

const (
	// LoadDecode: the source could not be read or is not a supported image.
	LoadDecode LoadErrorKind = iota + 1
	// LoadDeviceResourceExhausted: the device could not allocate or fill the
	// texture.
	LoadDeviceResourceExhausted
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadDecode:
		return "decode"
	case LoadDeviceResourceExhausted:
		return "device resource exhausted"
	default:
		return "unknown"
	}
}

// LoadError reports a failed texture load. errors.Is(err, ErrDecode) holds
// for decode failures and errors.Is(err, gpu.ErrResourceExhausted) for every
// device failure; the device cause is reachable through Unwrap.
type LoadError struct {
	Source string
	Kind   LoadErrorKind
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("quads: load texture %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrDecode:
		return e.Kind == LoadDecode
	case gpu.ErrResourceExhausted:
		return e.Kind == LoadDeviceResourceExhausted
	}
	return false
}

// FrameError reports a frame that could not be encoded or submitted. Only
// that frame is lost; the loop carries on.
type FrameError struct {
	Frame uint64
	Op    string
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("quads: frame %d: %s: %v", e.Frame, e.Op, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

func (e *FrameError) Is(target error) bool { return target == ErrFrameSubmission }
