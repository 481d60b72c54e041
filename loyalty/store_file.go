package loyalty

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

type tokenFile struct {
	Token string `json:"token"`
}

// FileStore keeps the token in a JSON file: {"token": "..."}.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the token file. A missing, unreadable or non-JSON file is
// reported as an error; the token manager degrades that to "no token".
func (s *FileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", wrapErr(KindStore, "file.load", "could not read token file", err)
	}

	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", wrapErr(KindParseFailure, "file.load", "token file is not valid JSON", err)
	}
	return f.Token, nil
}

// Save overwrites the token file. The data is written to a temporary file in
// the same directory and renamed over the target so readers never observe a
// half-written file.
func (s *FileStore) Save(_ context.Context, token string) error {
	data, err := json.Marshal(tokenFile{Token: token})
	if err != nil {
		return wrapErr(KindWriteFailure, "file.save", "could not encode token", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return wrapErr(KindWriteFailure, "file.save", "could not create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return wrapErr(KindWriteFailure, "file.save", "could not write token", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return wrapErr(KindWriteFailure, "file.save", "could not write token", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return wrapErr(KindWriteFailure, "file.save", "could not set token file mode", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return wrapErr(KindWriteFailure, "file.save", "could not replace token file", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
