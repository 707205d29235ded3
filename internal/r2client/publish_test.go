package r2client

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // matches the ETag scheme of R2
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory ObjectStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads []string
	headErr error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func etagOf(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // test fingerprint
	return hex.EncodeToString(sum[:])
}

func (s *memStore) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.uploads = append(s.uploads, key)
	return etagOf(data), nil
}

func (s *memStore) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), etagOf(data), nil
}

func (s *memStore) HeadObject(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.headErr != nil {
		return "", s.headErr
	}
	data, ok := s.objects[key]
	if !ok {
		return "", ErrNotFound
	}
	return etagOf(data), nil
}

func writeTables(t *testing.T, root string) []string {
	t.Helper()
	files := map[string]string{
		"room_capacity.csv":          "room,capacity\n52-101,120\n",
		"period_room_fall/mon.csv":   "period,52-101\n1,Course A\n",
		"period_room_winter/mon.csv": "period,52-101\n1,\n",
	}
	var paths []string
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func TestPublishAndPull(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src := t.TempDir()
	files := writeTables(t, src)
	files = append(files, filepath.Join(src, "period_room_fall", "tue.csv")) // missing on disk

	store := newMemStore()
	res, err := Publish(ctx, store, "rooms", src, files, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Uploaded)
	assert.Equal(t, 0, res.Unchanged)
	assert.Len(t, res.Manifest.Files, 3)
	assert.Equal(t, "run-1", res.Manifest.RunID)
	assert.Contains(t, store.objects, "rooms/manifest.json")
	assert.Contains(t, store.objects, "rooms/period_room_fall/mon.csv.zst")

	dst := t.TempDir()
	m, err := Pull(ctx, store, "rooms", dst)
	require.NoError(t, err)
	assert.Equal(t, "run-1", m.RunID)

	for _, f := range m.Files {
		want, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(f.Path)))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(f.Path)))
		require.NoError(t, err)
		assert.Equal(t, want, got, f.Path)
		assert.Equal(t, int64(len(want)), f.Size)
	}
}

func TestPublishSkipsUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src := t.TempDir()
	files := writeTables(t, src)
	store := newMemStore()

	_, err := Publish(ctx, store, "rooms", src, files, "run-1")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(src, "period_room_winter", "mon.csv"), []byte("period,52-101\n1,Course B\n"), 0o644))
	res, err := Publish(ctx, store, "rooms", src, files, "run-2")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Uploaded)
	assert.Equal(t, 2, res.Unchanged)

	m, err := FetchManifest(ctx, store, "rooms")
	require.NoError(t, err)
	assert.Equal(t, "run-2", m.RunID)
	assert.Len(t, m.Files, 3)
}

func TestPublishRejectsOutsideRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "mon.csv")

	_, err := Publish(context.Background(), newMemStore(), "rooms", root, []string{outside}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside")
}

func TestPublishHeadError(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	files := writeTables(t, src)
	store := newMemStore()
	store.headErr = errors.New("r2 unavailable")

	_, err := Publish(context.Background(), store, "rooms", src, files, "")
	require.ErrorIs(t, err, store.headErr)
	assert.NotContains(t, store.objects, "rooms/manifest.json")
}

func TestPullRejectsEscapingPaths(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	manifest := `{"published_at":"2026-01-01T00:00:00Z","files":[{"path":"../evil.csv","key":"rooms/evil.csv.zst"}]}`
	store.objects["rooms/manifest.json"] = []byte(manifest)

	dst := t.TempDir()
	_, err := Pull(context.Background(), store, "rooms", dst)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not local"))
	_, statErr := os.Stat(filepath.Join(filepath.Dir(dst), "evil.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPullWithoutManifest(t *testing.T) {
	t.Parallel()
	_, err := Pull(context.Background(), newMemStore(), "rooms", t.TempDir())
	require.ErrorIs(t, err, ErrNotFound)
}
