package file

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileWithSync(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "stepper_x.yaml")

	if err := WriteFileWithSync(target, []byte("first")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := WriteFileWithSync(target, []byte("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("unexpected content %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(entries))
	}
}
