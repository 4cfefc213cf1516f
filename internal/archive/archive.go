package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
)

// Decode reads a ZIP archive from raw bytes and returns member contents keyed
// by base filename. Directory components are stripped; when two members
// normalize to the same base name, the member read later wins.
func Decode(raw []byte) (map[string][]byte, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed create zip reader: %w", err)
	}

	entries := make(map[string][]byte, len(zipReader.File))
	for _, f := range zipReader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(f.Name)
		if name == "." || name == "/" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive member %s: %w", f.Name, err)
		}
		data, readErr := io.ReadAll(rc)
		closeErr := rc.Close()
		if err := errors.Join(readErr, closeErr); err != nil {
			return nil, fmt.Errorf("read archive member %s: %w", f.Name, err)
		}
		entries[name] = data
	}
	return entries, nil
}
