package reactive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Setting keys read by the built-in directives.
const (
	HideClass = "hide-class"
	ShowClass = "show-class"
)

// Settings is a string key/value store. It is safe for concurrent use.
type Settings struct {
	mu   sync.RWMutex
	list map[string]string
}

func NewSettings(values map[string]string) *Settings {
	s := &Settings{list: make(map[string]string, len(values))}
	for k, v := range values {
		s.list[k] = v
	}
	return s
}

// DefaultSettings is used by contexts created without WithSettings.
var DefaultSettings = NewSettings(map[string]string{
	HideClass: "hide",
	ShowClass: "show",
})

// Get returns the value of key, or the empty string.
func (s *Settings) Get(key string) string {
	v, _ := s.Lookup(key)
	return v
}

func (s *Settings) Lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.list[key]
	return v, ok
}

func (s *Settings) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list[key] = value
}

// Load merges the settings read from rd. format is "yaml" or "json".
func (s *Settings) Load(rd io.Reader, format string) error {
	data, err := io.ReadAll(rd)
	if err != nil {
		return err
	}
	values := make(map[string]string)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &values)
	case "json":
		err = json.Unmarshal(data, &values)
	default:
		return fmt.Errorf("reactive: unknown settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("reactive: settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.list[k] = v
	}
	return nil
}

// LoadSettings reads a YAML or JSON settings file on top of the default
// settings. The format follows the file extension.
func LoadSettings(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := DefaultSettings.Clone()
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if err := s.Load(f, format); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Settings) Clone() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewSettings(s.list)
}
