package file

import (
	"os"
	"path/filepath"
)

// WriteFileWithSync replaces file with data. The bytes are synced to a
// sibling temp file first so a reader never sees a half-written report.
func WriteFileWithSync(file string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(file), filepath.Base(file)+".tmp*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err = f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, file)
}
