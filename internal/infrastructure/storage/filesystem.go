// Package storage provides the object store backed by a local media directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
)

var _ repositories.ObjectStore = (*FilesystemStore)(nil)

// ErrInvalidKey is returned for keys that escape the media root.
var ErrInvalidKey = errors.New("invalid object key")

// FilesystemStore keeps objects as files under root. Keys are slash separated paths
// relative to root; public URLs are baseURL + "/" + key.
type FilesystemStore struct {
	root    string
	baseURL *url.URL
	logger  *logging.ChanneledLogger
}

func NewFilesystemStore(root, publicBaseURL string, logger *logging.ChanneledLogger) (*FilesystemStore, error) {
	base, err := url.Parse(strings.TrimRight(publicBaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid media public base URL: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &FilesystemStore{
		root:    root,
		baseURL: base,
		logger:  logger,
	}, nil
}

// Root returns the directory objects are stored under.
func (s *FilesystemStore) Root() string {
	return s.root
}

func (s *FilesystemStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (s *FilesystemStore) Stat(ctx context.Context, key string) (*content.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%s: %w", key, repositories.ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return objectInfo(strings.TrimPrefix(path.Clean("/"+key), "/"), info), nil
}

func (s *FilesystemStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := s.Stat(ctx, key); err != nil {
		return nil, err
	}
	full, _ := s.resolve(key)
	return os.Open(full)
}

// List returns every object below folder, recursively, sorted by key. A missing folder
// lists as empty.
func (s *FilesystemStore) List(ctx context.Context, folder string) ([]*content.ObjectInfo, error) {
	dir, err := s.resolve(folder)
	if err != nil {
		return nil, err
	}

	var objects []*content.ObjectInfo
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) && p == dir {
				return fs.SkipDir
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		objects = append(objects, objectInfo(filepath.ToSlash(rel), info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folder, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *FilesystemStore) Move(ctx context.Context, fromKey, toKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, err := s.resolve(fromKey)
	if err != nil {
		return err
	}
	to, err := s.resolve(toKey)
	if err != nil {
		return err
	}

	if _, err := os.Stat(from); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", fromKey, repositories.ErrObjectNotFound)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", toKey, err)
	}
	if err := moveNoReplace(from, to); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", toKey, repositories.ErrObjectExists)
		}
		return fmt.Errorf("failed to move %s to %s: %w", fromKey, toKey, err)
	}

	s.logger.Storage().Debug("Object moved", "from", fromKey, "to", toKey)
	return nil
}

// moveNoReplace hard links from to to, which fails atomically when to exists, then
// drops the old name. Filesystems without hard links fall back to stat and rename.
func moveNoReplace(from, to string) error {
	err := os.Link(from, to)
	if err == nil {
		return os.Remove(from)
	}
	if errors.Is(err, fs.ErrExist) {
		return err
	}
	if _, statErr := os.Lstat(to); statErr == nil {
		return fs.ErrExist
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return statErr
	}
	return os.Rename(from, to)
}

func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", key, repositories.ErrObjectNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// DeleteFolder removes folder only when it holds no objects. Empty subdirectories are
// removed along with it.
func (s *FilesystemStore) DeleteFolder(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.resolve(folder)
	if err != nil {
		return err
	}

	var dirs []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return fmt.Errorf("folder %s is not empty: %s remains", folder, d.Name())
		}
		dirs = append(dirs, p)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", folder, repositories.ErrObjectNotFound)
		}
		return err
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		if err := os.Remove(dirs[i]); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dirs[i], err)
		}
	}
	return nil
}

func (s *FilesystemStore) PublicURL(key string) string {
	u := *s.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimPrefix(key, "/")
	return u.String()
}

// KeyFromURL maps a URL under the public base URL back to its object key.
func (s *FilesystemStore) KeyFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", false
	}
	if !strings.EqualFold(u.Scheme, s.baseURL.Scheme) || !strings.EqualFold(u.Host, s.baseURL.Host) {
		return "", false
	}

	prefix := strings.TrimRight(s.baseURL.Path, "/") + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

func objectInfo(key string, info fs.FileInfo) *content.ObjectInfo {
	return &content.ObjectInfo{
		Key:         key,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(strings.ToLower(path.Ext(key))),
		ModTime:     info.ModTime().UTC(),
	}
}
