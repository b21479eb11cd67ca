// Package fs stores blob objects as files under a root directory. Each object
// has a JSON sidecar named <file>.meta holding its attributes.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mousecolony/internal/blob/core"
)

const metaSuffix = ".meta"

// DefaultRoot is used when no root is configured.
const DefaultRoot = "./reportdata"

// Store implements core.Store on the local filesystem.
type Store struct {
	root string
	now  func() time.Time
}

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Checksum    string            `json:"checksum"`
	Size        int64             `json:"size"`
	ModifiedAt  time.Time         `json:"modified_at"`
}

// New creates the root directory if needed and returns a store over it.
func New(root string) (*Store, error) {
	if root == "" {
		root = DefaultRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", root, err)
	}
	return &Store{root: root, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Root returns the directory objects are stored under.
func (s *Store) Root() string { return s.root }

// Driver implements core.Store.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

func (s *Store) paths(key string) (clean, data, meta string, err error) {
	clean, err = core.CleanKey(key)
	if err != nil {
		return "", "", "", err
	}
	if strings.HasSuffix(clean, metaSuffix) {
		return "", "", "", fmt.Errorf("blob: key %q uses the reserved %s suffix", key, metaSuffix)
	}
	data = filepath.Join(s.root, filepath.FromSlash(clean))
	return clean, data, data + metaSuffix, nil
}

// Put streams r into a temporary file, then renames it into place.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	clean, data, meta, err := s.paths(key)
	if err != nil {
		return core.Object{}, err
	}
	if _, err := os.Stat(data); err == nil {
		return core.Object{}, fmt.Errorf("%w: %s", core.ErrExists, clean)
	}
	dir := filepath.Dir(data)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.Object{}, err
	}
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return core.Object{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return core.Object{}, err
	}
	if err := os.Rename(tmp.Name(), data); err != nil {
		return core.Object{}, err
	}

	sc := sidecar{
		ContentType: opts.ContentType,
		Labels:      core.CloneLabels(opts.Labels),
		Checksum:    hex.EncodeToString(h.Sum(nil)),
		Size:        size,
		ModifiedAt:  s.now(),
	}
	raw, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return core.Object{}, err
	}
	if err := os.WriteFile(meta, raw, 0o644); err != nil {
		_ = os.Remove(data)
		return core.Object{}, err
	}
	return sc.object(clean), nil
}

// Open implements core.Store.
func (s *Store) Open(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	clean, data, meta, err := s.paths(key)
	if err != nil {
		return core.Object{}, nil, err
	}
	sc, err := readSidecar(clean, meta)
	if err != nil {
		return core.Object{}, nil, err
	}
	f, err := os.Open(data)
	if err != nil {
		return core.Object{}, nil, notFound(clean, err)
	}
	return sc.object(clean), f, nil
}

// Stat implements core.Store.
func (s *Store) Stat(_ context.Context, key string) (core.Object, error) {
	clean, _, meta, err := s.paths(key)
	if err != nil {
		return core.Object{}, err
	}
	sc, err := readSidecar(clean, meta)
	if err != nil {
		return core.Object{}, err
	}
	return sc.object(clean), nil
}

// Remove implements core.Store.
func (s *Store) Remove(_ context.Context, key string) (bool, error) {
	_, data, meta, err := s.paths(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(data); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	_ = os.Remove(meta)
	return true, nil
}

// List walks the root and returns the objects whose key starts with prefix.
func (s *Store) List(_ context.Context, prefix string) ([]core.Object, error) {
	var out []core.Object
	err := filepath.WalkDir(s.root, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(p, metaSuffix))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		sc, err := readSidecar(key, p)
		if err != nil {
			return err
		}
		out = append(out, sc.object(key))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Link returns a file URL; the filesystem has no expiring links so ttl is
// ignored.
func (s *Store) Link(_ context.Context, key string, _ time.Duration) (string, error) {
	_, data, _, err := s.paths(key)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(data)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func (sc sidecar) object(key string) core.Object {
	return core.Object{
		Key:         key,
		Size:        sc.Size,
		ContentType: sc.ContentType,
		Checksum:    sc.Checksum,
		Labels:      core.CloneLabels(sc.Labels),
		ModifiedAt:  sc.ModifiedAt,
	}
}

func readSidecar(key, path string) (sidecar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sidecar{}, notFound(key, err)
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return sidecar{}, fmt.Errorf("decode metadata for %s: %w", key, err)
	}
	return sc, nil
}

func notFound(key string, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return err
}
