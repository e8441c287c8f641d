package quads

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// scriptStep represents a single action in a script.
type scriptStep struct {
	Action string `json:"action"`
	Label  string `json:"label,omitempty"`
	Frames int    `json:"frames,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// scriptFile is the top-level JSON structure for a script.
type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

// scriptTarget is what a Script drives. Stage implements it.
type scriptTarget interface {
	Screenshot(label string)
	Resize(width, height int) error
	Quit()
}

// Script sequences screenshots, resizes and waits across frames for
// automated visual runs. It advances one step per tick. Attach it to a
// Stage with SetScript.
//
// Actions: "wait" (frames), "screenshot" (label), "resize" (width, height)
// and "quit".
type Script struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// ParseScript parses a JSON script.
func ParseScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, errors.New("parse script: no steps")
	}
	for i, st := range f.Steps {
		switch st.Action {
		case "wait", "screenshot", "quit":
		case "resize":
			if st.Width <= 0 || st.Height <= 0 {
				return nil, fmt.Errorf("parse script: step %d: resize needs a positive width and height", i)
			}
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: f.Steps}, nil
}

// LoadScript reads and parses a JSON script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}
	return ParseScript(data)
}

// Done reports whether all steps have been executed.
func (sc *Script) Done() bool {
	return sc.done
}

// step advances the script by one frame.
func (sc *Script) step(t scriptTarget) error {
	if sc.done {
		return nil
	}
	if sc.waitCount > 0 {
		sc.waitCount--
		return nil
	}
	if sc.cursor >= len(sc.steps) {
		sc.done = true
		return nil
	}

	st := sc.steps[sc.cursor]
	sc.cursor++

	var err error
	switch st.Action {
	case "screenshot":
		t.Screenshot(st.Label)
	case "resize":
		err = t.Resize(st.Width, st.Height)
	case "wait":
		if st.Frames > 0 {
			sc.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "quit":
		t.Quit()
	}

	if sc.cursor >= len(sc.steps) && sc.waitCount == 0 {
		sc.done = true
	}
	return err
}
