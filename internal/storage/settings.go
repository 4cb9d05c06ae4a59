package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const settingsFile = "settings.json"

// Settings is a small key/value file for values that must live outside the prompt
// database, such as the remote connection. Values may hold credentials, so the file is
// written owner-readable only.
type Settings struct {
	filePath string
	mu       sync.Mutex
}

// NewSettings creates settings stored in baseDir
func NewSettings(baseDir string) *Settings {
	return &Settings{
		filePath: filepath.Join(baseDir, settingsFile),
	}
}

// settingsData represents the JSON structure of the settings file
type settingsData struct {
	Values  map[string]json.RawMessage `json:"values"`
	Version string                     `json:"version"`
}

// Get decodes the value stored under key into out. It reports false when the key is absent.
func (s *Settings) Get(key string, out interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return false, err
	}

	raw, ok := data.Values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to parse setting %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key
func (s *Settings) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %q: %w", key, err)
	}
	data.Values[key] = raw

	return s.save(data)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Settings) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := data.Values[key]; !ok {
		return nil
	}
	delete(data.Values, key)

	return s.save(data)
}

func (s *Settings) load() (*settingsData, error) {
	data := &settingsData{Values: map[string]json.RawMessage{}}

	content, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := json.Unmarshal(content, data); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}
	if data.Values == nil {
		data.Values = map[string]json.RawMessage{}
	}
	return data, nil
}

func (s *Settings) save(data *settingsData) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data.Version = "1.0"
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	// Write through a temp file so a crash never leaves a truncated settings file
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
