package client

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCredentials(t *testing.T) {
	tmpDir := t.TempDir()
	credPath := filepath.Join(tmpDir, "feedctl", "credentials")

	creds := &Credentials{
		BaseURL: "http://localhost:8000",
		Login:   "alice",
		Token:   "test-token",
	}

	if err := SaveCredentials(credPath, creds); err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}

	info, err := os.Stat(credPath)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("File mode mismatch: got %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadCredentials(credPath)
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if *loaded != *creds {
		t.Errorf("Credentials mismatch: got %+v, want %+v", loaded, creds)
	}

	if err := RemoveCredentials(credPath); err != nil {
		t.Fatalf("RemoveCredentials failed: %v", err)
	}
	if err := RemoveCredentials(credPath); err != nil {
		t.Errorf("Removing a missing file should succeed: %v", err)
	}
}

func TestLoadCredentialsMissingToken(t *testing.T) {
	credPath := filepath.Join(t.TempDir(), "credentials")
	os.WriteFile(credPath, []byte("# feedctl\r\nLOGIN=alice\r\n"), 0o600)

	if _, err := LoadCredentials(credPath); err == nil {
		t.Error("Expected error for file without TOKEN")
	}
}

func TestLoadCredentialsNotFound(t *testing.T) {
	if _, err := LoadCredentials(filepath.Join(t.TempDir(), "missing")); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
