package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

// WriteJSON writes records as a UTF-8 JSON array indented with four spaces.
// Non-ASCII text is kept as is and parent directories are created.
func WriteJSON(path string, records []*models.PatientRecord) error {
	if records == nil {
		records = []*models.PatientRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadJSON loads an artifact written by WriteJSON.
func ReadJSON(path string) ([]*models.PatientRecord, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var records []*models.PatientRecord
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, err
	}
	return records, nil
}
