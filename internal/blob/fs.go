package blob

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// FS keeps objects as files under a root directory, with a JSON sidecar
// (key + ".meta") holding the content type and metadata. It suits a single
// host; use S3 when several servers share the store.
type FS struct {
	root string
}

type fsMeta struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewFS returns a store rooted at root, creating the directory if needed.
func NewFS(root string) (*FS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "create blob directory")
	}
	return &FS{root: root}, nil
}

// Driver identifies the backend.
func (s *FS) Driver() string { return "fs" }

// path maps key to a file under root, refusing keys that escape it.
func (s *FS) path(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("empty blob key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", errors.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(filepath.Clean(key))), nil
}

// Put writes obj, replacing any object at the same key. The body is written
// to a temporary file and renamed into place.
func (s *FS) Put(_ context.Context, obj Object) error {
	p, err := s.path(obj.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrapf(err, "put %s", obj.Key)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "put %s", obj.Key)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(obj.Body); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "put %s", obj.Key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "put %s", obj.Key)
	}

	meta, err := json.Marshal(fsMeta{ContentType: obj.ContentType, Metadata: cloneMetadata(obj.Metadata)})
	if err != nil {
		return errors.Wrapf(err, "put %s", obj.Key)
	}
	if err := os.WriteFile(p+".meta", meta, 0o644); err != nil {
		return errors.Wrapf(err, "put %s metadata", obj.Key)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return errors.Wrapf(err, "put %s", obj.Key)
	}
	return nil
}

// Get reads the object at key.
func (s *FS) Get(_ context.Context, key string) (Object, error) {
	p, err := s.path(key)
	if err != nil {
		return Object{}, err
	}
	body, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, errors.Wrapf(err, "get %s", key)
	}

	var meta fsMeta
	raw, err := os.ReadFile(p + ".meta")
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Object{}, errors.Wrapf(err, "get %s metadata", key)
	default:
		if err := json.Unmarshal(raw, &meta); err != nil {
			return Object{}, errors.Wrapf(err, "get %s metadata", key)
		}
	}
	return Object{Key: key, Body: body, ContentType: meta.ContentType, Metadata: meta.Metadata}, nil
}
