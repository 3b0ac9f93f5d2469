package space

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/shared/paths"
)

var (
	// ErrNotFound is returned for names missing from the space
	ErrNotFound = errors.New("file not found")
	// ErrOutsideSpace is returned for names escaping the space root
	ErrOutsideSpace = errors.New("path outside space")
)

// FileInfo describes a file in the space
type FileInfo struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified"`
	ContentType  string `json:"contentType,omitempty"`
	Perm         string `json:"perm"`
}

// Store is a directory-backed space
type Store struct {
	root   string
	logger *zap.Logger

	mu    sync.RWMutex
	files map[string]FileInfo
}

// New opens the space rooted at dir, creating it if needed, and indexes it
func New(ctx context.Context, dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve space dir: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create space dir: %w", err)
	}

	s := &Store{
		root:   root,
		logger: logger,
		files:  make(map[string]FileInfo),
	}
	if err := s.Reindex(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the absolute space directory
func (s *Store) Root() string {
	return s.root
}

// Reindex rebuilds the file index from disk
func (s *Store) Reindex(ctx context.Context) error {
	start := time.Now()
	files := make(map[string]FileInfo)
	var mu sync.Mutex

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, s.root, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip unreadable entries
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		fi := fileInfo(filepath.ToSlash(rel), info)

		mu.Lock()
		files[fi.Name] = fi
		mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index space: %w", err)
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()

	s.logger.Debug("Space indexed",
		zap.Int("files", len(files)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func fileInfo(name string, info fs.FileInfo) FileInfo {
	perm := "rw"
	if info.Mode().Perm()&0o200 == 0 {
		perm = "ro"
	}
	return FileInfo{
		Name:         name,
		Size:         info.Size(),
		LastModified: info.ModTime().UnixMilli(),
		Perm:         perm,
	}
}

// resolve maps a space name to an absolute path inside the root
func (s *Store) resolve(name string) (string, error) {
	if err := paths.Validate(name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutsideSpace, err)
	}
	full := filepath.Join(s.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideSpace, name)
	}
	return full, nil
}

// FileExists reports whether name is in the index
func (s *Store) FileExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[name]
	return ok
}

// Stat returns the indexed info for name
func (s *Store) Stat(name string) (FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fi, ok := s.files[name]
	if !ok {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return fi, nil
}

// Read returns the content of name along with its info
func (s *Store) Read(ctx context.Context, name string) ([]byte, FileInfo, error) {
	full, err := s.resolve(name)
	if err != nil {
		return nil, FileInfo{}, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, FileInfo{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, FileInfo{}, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	fi := fileInfo(name, info)
	fi.ContentType = DetectContentType(data)
	return data, fi, nil
}

// ReadPage returns the markdown of page
func (s *Store) ReadPage(ctx context.Context, page string) (string, error) {
	data, _, err := s.Read(ctx, paths.PageFile(page))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write replaces the content of name, creating parent folders
func (s *Store) Write(ctx context.Context, name string, data []byte) (FileInfo, error) {
	full, err := s.resolve(name)
	if err != nil {
		return FileInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return FileInfo{}, fmt.Errorf("failed to create folder for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".write-*")
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return FileInfo{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return FileInfo{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return FileInfo{}, fmt.Errorf("failed to write %s: %w", name, err)
	}

	info, err := os.Stat(full)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	fi := fileInfo(name, info)

	s.mu.Lock()
	s.files[name] = fi
	s.mu.Unlock()

	s.logger.Debug("File written", zap.String("name", name), zap.Int("size", len(data)))
	return fi, nil
}

// Delete removes name from the space
func (s *Store) Delete(ctx context.Context, name string) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	s.mu.Lock()
	delete(s.files, name)
	s.mu.Unlock()
	return nil
}

// List returns indexed files matching a doublestar pattern, sorted by name.
// An empty pattern matches everything.
func (s *Store) List(pattern string) ([]FileInfo, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	s.mu.RLock()
	out := make([]FileInfo, 0, len(s.files))
	for name, fi := range s.files {
		if ok, _ := doublestar.Match(pattern, name); ok {
			out = append(out, fi)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Pages returns the names of all pages
func (s *Store) Pages() []string {
	files, _ := s.List("**/*" + paths.PageExtension)
	pages := make([]string, 0, len(files))
	for _, fi := range files {
		if name, ok := paths.PageName(fi.Name); ok {
			pages = append(pages, name)
		}
	}
	return pages
}

// DetectContentType sniffs the media type of data
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// ReadFile returns the content of name
func (s *Store) ReadFile(ctx context.Context, name string) ([]byte, error) {
	data, _, err := s.Read(ctx, name)
	return data, err
}

// WriteFile replaces the content of name
func (s *Store) WriteFile(ctx context.Context, name string, data []byte) error {
	_, err := s.Write(ctx, name, data)
	return err
}
