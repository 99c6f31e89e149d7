package util

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SaveJSON marshals data to path, creating parent directories as needed.
func SaveJSON(path string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	bs, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0644)
}

// LoadJSON unmarshals the file at path into out.
func LoadJSON(path string, out interface{}) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(bs, out)
}
