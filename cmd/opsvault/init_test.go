package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "opsvault-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	archivePath = ".opsvault/opsvault.db"
	snapshotPath = ".opsvault/snapshot.jsonl"

	if err := runInit([]string{tmpDir}); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	vaultDir := filepath.Join(tmpDir, ".opsvault")
	if _, err := os.Stat(vaultDir); os.IsNotExist(err) {
		t.Errorf(".opsvault directory was not created")
	}

	gitignorePath := filepath.Join(vaultDir, ".gitignore")
	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		t.Errorf("failed to read .gitignore: %v", err)
	}
	if string(content) != "opsvault.db*\n" {
		t.Errorf(".gitignore content mismatch: expected 'opsvault.db*\\n', got %q", string(content))
	}

	archiveFile := filepath.Join(vaultDir, "opsvault.db")
	if _, err := os.Stat(archiveFile); os.IsNotExist(err) {
		t.Errorf("archive file was not created")
	}
}

func TestInitOverwritesGitignore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "opsvault-test-overwrite-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	vaultDir := filepath.Join(tmpDir, ".opsvault")
	if err := os.MkdirAll(vaultDir, 0755); err != nil {
		t.Fatalf("failed to create .opsvault dir: %v", err)
	}

	gitignorePath := filepath.Join(vaultDir, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("old-content\n"), 0644); err != nil {
		t.Fatalf("failed to create initial .gitignore: %v", err)
	}

	archivePath = ".opsvault/opsvault.db"
	snapshotPath = ".opsvault/snapshot.jsonl"

	if err := runInit([]string{tmpDir}); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		t.Fatalf("failed to read .gitignore: %v", err)
	}
	if string(content) != "opsvault.db*\n" {
		t.Errorf(".gitignore was not overwritten: expected 'opsvault.db*\\n', got %q", string(content))
	}
}
