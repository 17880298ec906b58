// Package storage persists secrets in a private JSON file. A Store is safe for
// concurrent use: the login port writes tokens while the main loop may delete
// them on logout.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/jobdeck/internal/validate"
)

// ErrSecretNotFound is returned by GetSecret for unknown names.
var ErrSecretNotFound = errors.New("secret not found")

const (
	maxSecretLen   = 65536
	secretValueTag = "max=65536"
)

// Data represents the structure of the secrets file.
type Data struct {
	Secrets map[string]string `json:"secrets" validate:"dive,keys,secret_name,endkeys,max=65536"`
}

// Store handles the loading and saving of the secrets file.
type Store struct {
	Path string `validate:"required,filepath"`

	mu   sync.Mutex
	data Data
}

// NewStore opens the store at path, loading it if the file exists.
func NewStore(path string) (*Store, error) {
	expandedPath, err := ExpandTilde(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		Path: expandedPath,
		data: Data{Secrets: make(map[string]string)},
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("secrets file: %w", err)
	}

	if err := s.load(); err != nil {
		// If the file doesn't exist, we can ignore the error.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return s, nil
}

// StoreSecret sets name to value and writes the file.
func (s *Store) StoreSecret(name, value string) error {
	if err := validate.Var(name, "secret_name"); err != nil {
		return fmt.Errorf("invalid secret name %q: %w", name, err)
	}
	if err := validate.Var(value, secretValueTag); err != nil {
		return fmt.Errorf("secret %q exceeds %d characters: %w", name, maxSecretLen, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Secrets[name] = value
	return s.save()
}

// GetSecret returns the value stored under name.
func (s *Store) GetSecret(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data.Secrets[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return v, nil
}

// DeleteSecret removes name. Deleting a missing secret is not an error.
func (s *Store) DeleteSecret(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Secrets[name]; !ok {
		return nil
	}
	delete(s.data.Secrets, name)
	return s.save()
}

func (s *Store) load() error {
	logrus.Debug("Loading secrets file from: ", s.Path)
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return err
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse %s: %w", s.Path, err)
	}
	if data.Secrets == nil {
		data.Secrets = make(map[string]string)
	}

	// Validate loaded data and self-heal when possible.
	if err := validate.Struct(data); err != nil {
		for name, value := range data.Secrets {
			switch {
			case validate.Var(name, "secret_name") != nil:
				logrus.Warnf("Invalid secret name %q found in secrets file; dropping.", name)
				delete(data.Secrets, name)
			case validate.Var(value, secretValueTag) != nil:
				logrus.Warnf("Secret %q in secrets file exceeds %d characters; dropping.", name, maxSecretLen)
				delete(data.Secrets, name)
			}
		}
		if err := validate.Struct(data); err != nil {
			return fmt.Errorf("secrets file %s: %w", s.Path, err)
		}
		s.data = data
		return s.save()
	}
	s.data = data
	return nil
}

// save writes the secrets to the file. Callers hold s.mu.
func (s *Store) save() error {
	logrus.Debug("Saving secrets file to: ", s.Path)
	// Ensure parent directory exists.
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	// Write then rename so a crash never leaves a truncated file behind.
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

// ExpandTilde expands a leading tilde in path to the user's home directory.
func ExpandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}
