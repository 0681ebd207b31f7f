package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fotoatelier/backend/internal/config"
)

// StorageService mirrors uploaded images on local disk for fast serving.
// S3 stays the source of truth; the mirror is rebuilt on demand.
type StorageService struct {
	cfg *config.Config
}

func NewStorageService(cfg *config.Config) *StorageService {
	// ensure local path exists
	_ = os.MkdirAll(cfg.LocalAssetsPath, 0o755)
	return &StorageService{cfg: cfg}
}

// SaveStream saves an incoming stream to local storage and returns absolute path, size and checksum
func (s *StorageService) SaveStream(ctx context.Context, key string, r io.Reader) (string, int64, string, error) {
	absPath := filepath.Join(s.cfg.LocalAssetsPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", 0, "", err
	}

	tmp := absPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, "", err
	}
	defer f.Close()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	if err := f.Sync(); err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	return absPath, n, checksum, nil
}

// LocalPath returns the absolute local path for a key if the file exists
func (s *StorageService) LocalPath(key string) (string, bool) {
	absPath := filepath.Join(s.cfg.LocalAssetsPath, filepath.FromSlash(key))
	if _, err := os.Stat(absPath); err != nil {
		return "", false
	}
	return absPath, true
}

// Remove deletes the local mirror copy for a key, if present
func (s *StorageService) Remove(key string) error {
	absPath := filepath.Join(s.cfg.LocalAssetsPath, filepath.FromSlash(key))
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ServeFileWithRange serves a local file with HTTP range support
func (s *StorageService) ServeFileWithRange(w http.ResponseWriter, req *http.Request, absPath, downloadName string) error {
	if downloadName != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", downloadName))
	}
	http.ServeFile(w, req, absPath)
	return nil
}
