package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PathPrefix is the store-relative prefix every persisted path carries.
const PathPrefix = "/uploads/"

// PlaceholderFile is a reserved asset that orphan cleanup must never delete.
const PlaceholderFile = "placeholder.png"

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".doc":  true,
	".docx": true,
}

// FileStorage defines the contract for document storage.
type FileStorage interface {
	// Save stores the content under a generated unique name derived from
	// fileName and returns the store-relative path (e.g. "/uploads/<name>").
	Save(ctx context.Context, r io.Reader, fileName string) (string, error)
	// Delete removes a stored file. A missing file is not an error.
	Delete(ctx context.Context, path string) error
	// Exists reports whether the path refers to a stored file.
	Exists(path string) bool
	// List returns the store-relative paths of every stored file.
	List() ([]string, error)
}

type diskStorage struct {
	dir string
}

// NewDiskStorage creates a local-disk FileStorage rooted at dir, creating the
// directory if needed. Falls back to UPLOAD_DIR or "./uploads" when dir is empty.
func NewDiskStorage(dir string) (FileStorage, error) {
	if dir == "" {
		dir = os.Getenv("UPLOAD_DIR")
	}
	if dir == "" {
		dir = "./uploads"
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", abs, err)
	}

	return &diskStorage{dir: abs}, nil
}

func (s *diskStorage) Save(ctx context.Context, r io.Reader, fileName string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("cannot store empty file")
	}

	base := filepath.Base(strings.TrimSpace(fileName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("file name cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("file type not allowed: %s", ext)
	}

	unique := uuid.New().String() + "-" + base
	target := filepath.Join(s.dir, unique)

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to store file %s: %w", base, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to store file %s: %w", base, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to store file %s: %w", base, err)
	}

	return PathPrefix + unique, nil
}

func (s *diskStorage) Delete(ctx context.Context, path string) error {
	name, ok := s.resolve(path)
	if !ok {
		return nil
	}

	if err := os.Remove(name); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}

	log.Printf("file deleted: %s", path)
	return nil
}

func (s *diskStorage) Exists(path string) bool {
	name, ok := s.resolve(path)
	if !ok {
		return false
	}
	_, err := os.Stat(name)
	return err == nil
}

func (s *diskStorage) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, PathPrefix+e.Name())
	}
	return paths, nil
}

// resolve maps a store-relative path to an absolute one inside the upload dir.
// Paths outside the dir or without the prefix are rejected.
func (s *diskStorage) resolve(path string) (string, bool) {
	if !strings.HasPrefix(path, PathPrefix) {
		return "", false
	}

	name := filepath.Base(strings.TrimPrefix(path, PathPrefix))
	if name == "" || name == "." {
		return "", false
	}

	return filepath.Join(s.dir, name), true
}
