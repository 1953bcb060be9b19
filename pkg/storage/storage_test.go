package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStorage(t *testing.T) (FileStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewDiskStorage(dir)
	if err != nil {
		t.Fatalf("NewDiskStorage failed: %v", err)
	}
	return s, dir
}

func TestSaveReturnsPrefixedUniquePath(t *testing.T) {
	s, dir := newTestStorage(t)

	p1, err := s.Save(context.Background(), strings.NewReader("a"), "cert.pdf")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	p2, err := s.Save(context.Background(), strings.NewReader("b"), "cert.pdf")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !strings.HasPrefix(p1, PathPrefix) {
		t.Errorf("path missing prefix: %s", p1)
	}
	if p1 == p2 {
		t.Errorf("two saves of the same name must not collide: %s", p1)
	}

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(p1, PathPrefix)))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "a" {
		t.Errorf("stored content = %q, want %q", data, "a")
	}
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	s, _ := newTestStorage(t)

	cases := []string{"malware.exe", "script.sh", "archive.zip", "noext"}
	for _, name := range cases {
		if _, err := s.Save(context.Background(), strings.NewReader("x"), name); err == nil {
			t.Errorf("expected rejection for %q", name)
		}
	}
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	s, dir := newTestStorage(t)

	p, err := s.Save(context.Background(), strings.NewReader("x"), "../../etc/passwd.pdf")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	name := strings.TrimPrefix(p, PathPrefix)
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		t.Errorf("stored name leaks path components: %q", name)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("file not stored inside upload dir: %v", err)
	}
}

func TestDeleteMissingFileIsNoError(t *testing.T) {
	s, _ := newTestStorage(t)

	if err := s.Delete(context.Background(), PathPrefix+"nope.pdf"); err != nil {
		t.Errorf("deleting a missing file should be nil, got %v", err)
	}
}

func TestDeleteRejectsPathsOutsidePrefix(t *testing.T) {
	s, dir := newTestStorage(t)

	outside := filepath.Join(dir, "..", "escape.pdf")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	t.Cleanup(func() { os.Remove(outside) })

	if err := s.Delete(context.Background(), "/elsewhere/escape.pdf"); err != nil {
		t.Errorf("unprefixed path should be ignored, got %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("file outside the upload dir must not be touched")
	}
}

func TestExistsAndList(t *testing.T) {
	s, _ := newTestStorage(t)

	p, err := s.Save(context.Background(), strings.NewReader("x"), "doc.docx")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !s.Exists(p) {
		t.Errorf("Exists(%q) = false after save", p)
	}
	if s.Exists(PathPrefix + "ghost.pdf") {
		t.Error("Exists should be false for unknown files")
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0] != p {
		t.Errorf("List = %v, want [%s]", list, p)
	}

	if err := s.Delete(context.Background(), p); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.Exists(p) {
		t.Error("Exists should be false after delete")
	}
}
