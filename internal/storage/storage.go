// Package storage is the object-storage collaborator for generated media:
// portraits and interrogation audio. The filesystem implementation serves a
// single-node deployment; the interface is what the rest of the system
// depends on.
package storage

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/random"
)

// Object identifies an uploaded blob. URL is what gets embedded in case data,
// ID is what Delete takes.
type Object struct {
	URL string
	ID  string
}

type Store interface {
	Upload(ctx context.Context, blob []byte, name string, folder string) (Object, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Filesystem stores blobs under baseDir and serves them under baseURL.
type Filesystem struct {
	baseDir string
	baseURL string
	logger  *slog.Logger
}

func NewFilesystem(baseDir, baseURL string, logger *slog.Logger) *Filesystem {
	return &Filesystem{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.With("source", "storage.Filesystem"),
	}
}

// Upload writes the blob under a collision-free name and returns its public
// URL along with the id used for deletion.
func (fs *Filesystem) Upload(ctx context.Context, blob []byte, name string, folder string) (Object, error) {
	suffix, err := random.Letters(8)
	if err != nil {
		return Object{}, errors.Wrap(err, "generate filename suffix")
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(path.Base(name), ext)
	id, err := fs.sanitize(path.Join(folder, base+"-"+suffix+ext))
	if err != nil {
		return Object{}, err
	}

	fullPath := filepath.Join(fs.baseDir, filepath.FromSlash(id))
	if err = os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return Object{}, errors.Wrap(err, "create media directory", slog.String("dir", filepath.Dir(fullPath)))
	}
	if err = os.WriteFile(fullPath, blob, 0o644); err != nil {
		return Object{}, errors.Wrap(err, "write media file", slog.String("path", fullPath))
	}

	fs.logger.LogAttrs(ctx, slog.LevelDebug, "uploaded media", slog.String("id", id), slog.Int("bytes", len(blob)))
	return Object{
		URL: fs.baseURL + "/" + id,
		ID:  id,
	}, nil
}

// Delete removes the blob. It reports false without error when the id does
// not exist so that retried deletes stay idempotent.
func (fs *Filesystem) Delete(_ context.Context, id string) (bool, error) {
	clean, err := fs.sanitize(id)
	if err != nil {
		return false, err
	}
	err = os.Remove(filepath.Join(fs.baseDir, filepath.FromSlash(clean)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "remove media file", slog.String("id", id))
	}
	return true, nil
}

// sanitize rejects ids that would escape the base directory.
func (fs *Filesystem) sanitize(id string) (string, error) {
	cleaned := path.Clean(id)
	if strings.Contains(cleaned, "..") || path.IsAbs(cleaned) {
		return "", errors.New("invalid media id", slog.String("id", id))
	}
	return cleaned, nil
}
