package quads

import (
	"os"
	"path/filepath"
	"testing"
)

type recordingTarget struct {
	events []string
}

func (r *recordingTarget) Screenshot(label string) { r.events = append(r.events, "shot:"+label) }
func (r *recordingTarget) Resize(w, h int) error {
	r.events = append(r.events, "resize")
	return nil
}
func (r *recordingTarget) Quit() { r.events = append(r.events, "quit") }

func TestParseScriptRejects(t *testing.T) {
	for _, src := range []string{
		`not json`,
		`{"steps": []}`,
		`{"steps": [{"action": "dance"}]}`,
		`{"steps": [{"action": "resize", "width": 10}]}`,
	} {
		if _, err := ParseScript([]byte(src)); err == nil {
			t.Errorf("ParseScript(%s) succeeded", src)
		}
	}
}

func TestScriptWaitCountsFrames(t *testing.T) {
	sc, err := ParseScript([]byte(`{"steps": [
		{"action": "wait", "frames": 3},
		{"action": "screenshot", "label": "a"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	target := &recordingTarget{}
	for frame := 1; frame <= 3; frame++ {
		sc.step(target)
		if len(target.events) != 0 {
			t.Fatalf("frame %d: events %v during wait", frame, target.events)
		}
	}
	sc.step(target)
	if len(target.events) != 1 || target.events[0] != "shot:a" {
		t.Errorf("events = %v", target.events)
	}
	if !sc.Done() {
		t.Error("script not done after last step")
	}
	sc.step(target)
	if len(target.events) != 1 {
		t.Error("done script kept running")
	}
}

func TestScriptTrailingWait(t *testing.T) {
	sc, err := ParseScript([]byte(`{"steps": [{"action": "quit"}, {"action": "wait", "frames": 2}]}`))
	if err != nil {
		t.Fatal(err)
	}
	target := &recordingTarget{}
	sc.step(target)
	sc.step(target)
	if sc.Done() {
		t.Error("done before the wait elapsed")
	}
	sc.step(target)
	sc.step(target)
	if !sc.Done() {
		t.Error("not done after the wait")
	}
	if len(target.events) != 1 || target.events[0] != "quit" {
		t.Errorf("events = %v", target.events)
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(`{"steps": [{"action": "quit"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScript(path); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScript(path + ".missing"); err == nil {
		t.Error("expected missing script to fail")
	}
}
