package ingest

import (
	"os"
	"path/filepath"
)

// saveTempFile writes payload to a temp file and returns its path plus a
// cleanup func. Callers defer cleanup immediately so the artifact is
// removed on every exit path.
func saveTempFile(pattern string, payload []byte) (string, func(), error) {
	file, err := os.CreateTemp("", filepath.Base(pattern))
	if err != nil {
		return "", nil, err
	}
	path := file.Name()
	cleanup := func() {
		_ = os.Remove(path)
	}
	if _, err := file.Write(payload); err != nil {
		file.Close()
		cleanup()
		return "", nil, err
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
