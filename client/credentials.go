package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credentials is what feedctl remembers between runs.
type Credentials struct {
	BaseURL string
	Login   string
	Token   string
}

// SaveCredentials writes credentials to path as KEY=VALUE lines, readable
// only by the owner.
func SaveCredentials(path string, creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data := fmt.Sprintf("BASE_URL=%s\nLOGIN=%s\nTOKEN=%s\n", creds.BaseURL, creds.Login, creds.Token)
	return os.WriteFile(path, []byte(data), 0o600)
}

// LoadCredentials reads a file written by SaveCredentials.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	creds := &Credentials{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		switch key {
		case "BASE_URL":
			creds.BaseURL = value
		case "LOGIN":
			creds.Login = value
		case "TOKEN":
			creds.Token = value
		}
	}

	if creds.Token == "" {
		return nil, fmt.Errorf("TOKEN not found in credentials file")
	}
	return creds, nil
}

// RemoveCredentials deletes the credentials file. A missing file is not an error.
func RemoveCredentials(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
