package device

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProbe(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "dev", "video0"))
	touch(t, filepath.Join(root, "dev", "snd", "pcmC0D0c"))
	touch(t, filepath.Join(root, "dev", "snd", "pcmC0D0p"))

	statuses := Probe(root)
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}

	cam := statuses[0]
	if cam.Kind != Camera || !cam.Granted || len(cam.Devices) != 1 {
		t.Errorf("camera = %+v", cam)
	}
	mic := statuses[1]
	if mic.Kind != Microphone || !mic.Granted {
		t.Errorf("microphone = %+v", mic)
	}
	if len(mic.Devices) != 1 || filepath.Base(mic.Devices[0]) != "pcmC0D0c" {
		t.Errorf("microphone devices = %v, want only the capture node", mic.Devices)
	}
}

func TestProbe_NoDevices(t *testing.T) {
	for _, st := range Probe(t.TempDir()) {
		if st.Granted {
			t.Errorf("%s granted with no device nodes", st.Kind)
		}
	}
}

func TestRequestPermissions_NeverFails(t *testing.T) {
	if got := RequestPermissions(zap.NewNop()); len(got) != 2 {
		t.Errorf("got %d statuses, want 2", len(got))
	}
}
