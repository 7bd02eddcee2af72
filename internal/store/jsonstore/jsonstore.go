package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/idilsaglam/basket/internal/model"
)

// JSON-backed list file. Single file, human-readable, same record shape as
// the seed endpoint. No locking; fine for a local single-user CLI.

// DefaultFileName is used when no path is configured.
const DefaultFileName = "basket.json"

// Path resolves p against the working directory, defaulting to
// DefaultFileName.
func Path(p string) (string, error) {
	if p == "" {
		p = DefaultFileName
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(wd, p), nil
}

// Load reads records from path. ok is false when the file does not exist.
func Load(path string) (records []model.Record, ok bool, err error) {
	p, err := Path(path)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, false, fmt.Errorf("json unmarshal: %w", err)
	}
	return records, true, nil
}

// Save writes records to path, creating parent directories.
func Save(path string, records []model.Record) error {
	p, err := Path(path)
	if err != nil {
		return err
	}
	if records == nil {
		records = []model.Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
