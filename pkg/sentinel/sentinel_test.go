package sentinel

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testfile")
	content := []byte("hello world")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}

	want := sha256.Sum256(content)
	if got != want {
		t.Errorf("hash mismatch: got %x, want %x", got, want)
	}
}

func TestHashFileDifferentContent(t *testing.T) {
	dir := t.TempDir()

	path1 := filepath.Join(dir, "file1")
	path2 := filepath.Join(dir, "file2")
	if err := os.WriteFile(path1, []byte("content A"), 0644); err != nil {
		t.Fatalf("failed to write file1: %v", err)
	}
	if err := os.WriteFile(path2, []byte("content B"), 0644); err != nil {
		t.Fatalf("failed to write file2: %v", err)
	}

	hash1, err := HashFile(path1)
	if err != nil {
		t.Fatalf("HashFile(file1) failed: %v", err)
	}
	hash2, err := HashFile(path2)
	if err != nil {
		t.Fatalf("HashFile(file2) failed: %v", err)
	}

	if hash1 == hash2 {
		t.Error("different files produced the same hash")
	}
}

func TestHashFileNotFound(t *testing.T) {
	_, err := HashFile("/nonexistent/file/path")
	if err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

func TestIncreaseBackoffCapsAtMax(t *testing.T) {
	s := &Sentinel{backoff: InitialBackoff}
	for i := 0; i < 20; i++ {
		s.increaseBackoff()
	}
	if s.backoff != MaxBackoff {
		t.Errorf("backoff = %v, want cap %v", s.backoff, MaxBackoff)
	}
}

func TestSleepBackoffInterruptedByStop(t *testing.T) {
	s := &Sentinel{
		backoff: 10 * time.Second,
		stopCh:  make(chan struct{}),
	}
	done := make(chan struct{})
	go func() {
		s.sleepBackoff()
		close(done)
	}()
	close(s.stopCh)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sleepBackoff did not return after stopCh was closed")
	}
}
