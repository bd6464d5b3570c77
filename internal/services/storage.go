package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type StorageService interface {
	EnsureDir() error
	SaveFile(filename string, content []byte) (string, error)
	GetFilePath(filename string) string
	DeleteFile(filename string) error
}

type storageService struct {
	basePath string
}

func NewStorageService(basePath string) StorageService {
	return &storageService{
		basePath: basePath,
	}
}

func (s *storageService) EnsureDir() error {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	return nil
}

// SaveFile writes content under filename. The bytes go to a temp file
// first, which is always closed and removed unless it was renamed into
// place.
func (s *storageService) SaveFile(filename string, content []byte) (string, error) {
	if filename == "" || filepath.Base(filename) != filename || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("invalid file name: %q", filename)
	}

	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.basePath, "."+filename+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	filePath := s.GetFilePath(filename)
	if err := os.Rename(tmpPath, filePath); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filePath, nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.basePath, filename)
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := s.GetFilePath(filename)
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
