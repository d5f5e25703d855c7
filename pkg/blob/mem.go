package blob

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mansu/kaldb/pkg/kaldberr"
)

// MemStore is an in-memory Store used by unit tests that don't want a real
// S3 endpoint. Keys are full "s3://bucket/key" URIs.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

func (m *MemStore) Put(ctx context.Context, uri, localDir string) error {
	p, err := parseURI(uri)
	if err != nil {
		return kaldberr.NewBlobIoError("put", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return filepath.WalkDir(localDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return kaldberr.NewBlobIoError("put:walk", err)
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return kaldberr.NewBlobIoError("put:rel", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return kaldberr.NewBlobIoError("put:read", err)
		}

		key := p.key
		if key != "" && !strings.HasSuffix(key, "/") {
			key += "/"
		}
		key += filepath.ToSlash(rel)

		m.objects["s3://"+p.bucket+"/"+key] = data
		return nil
	})
}

func (m *MemStore) Exists(ctx context.Context, uri string) (bool, error) {
	objs, err := m.List(ctx, uri, true)
	if err != nil {
		return false, err
	}
	return len(objs) > 0, nil
}

func (m *MemStore) List(ctx context.Context, uri string, recursive bool) ([]string, error) {
	if _, err := parseURI(uri); err != nil {
		return nil, kaldberr.NewBlobIoError("list", err)
	}
	prefix := strings.TrimSuffix(uri, "/") + "/"

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for key := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !recursive {
			rest := strings.TrimPrefix(key, prefix)
			if strings.Contains(rest, "/") {
				continue
			}
		}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) Delete(ctx context.Context, uri string) error {
	objs, err := m.List(ctx, uri, true)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range objs {
		delete(m.objects, key)
	}
	return nil
}

func (m *MemStore) CopyToLocal(ctx context.Context, uri, dir string) error {
	p, err := parseURI(uri)
	if err != nil {
		return kaldberr.NewBlobIoError("copyToLocal", err)
	}
	objs, err := m.List(ctx, uri, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return kaldberr.NewBlobIoError("copyToLocal:mkdir", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := p.key
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	for _, key := range objs {
		objKey, err := parseURI(key)
		if err != nil {
			return kaldberr.NewBlobIoError("copyToLocal", err)
		}
		rel := strings.TrimPrefix(objKey.key, prefix)
		dest := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return kaldberr.NewBlobIoError("copyToLocal:mkdir", err)
		}
		out, err := os.Create(dest)
		if err != nil {
			return kaldberr.NewBlobIoError("copyToLocal:create", err)
		}
		_, copyErr := io.Copy(out, bytes.NewReader(m.objects[key]))
		out.Close()
		if copyErr != nil {
			return kaldberr.NewBlobIoError("copyToLocal:copy", copyErr)
		}
	}
	return nil
}
