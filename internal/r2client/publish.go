package r2client

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // R2 reports MD5 ETags for single-part uploads.
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

// ManifestName is the object name of the manifest under a prefix.
const ManifestName = "manifest.json"

// ObjectStore is the object storage used for publishing.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	HeadObject(ctx context.Context, key string) (string, error)
}

// ManifestFile describes one published table.
type ManifestFile struct {
	Path string `json:"path"` // Slash-separated, relative to the data directory
	Key  string `json:"key"`
	Size int64  `json:"size"` // Uncompressed size in bytes
	ETag string `json:"etag"`
}

// Manifest lists the objects of one publication.
type Manifest struct {
	RunID       string         `json:"run_id,omitempty"`
	PublishedAt time.Time      `json:"published_at"`
	Files       []ManifestFile `json:"files"`
}

// PublishResult reports what Publish wrote.
type PublishResult struct {
	Manifest  Manifest
	Uploaded  int
	Unchanged int
}

// Publish uploads files (paths under root) as zstd objects under prefix and
// then writes the manifest. Files missing on disk are skipped. An object
// whose stored ETag already matches the compressed content is not uploaded
// again.
func Publish(ctx context.Context, store ObjectStore, prefix, root string, files []string, runID string) (PublishResult, error) {
	result := PublishResult{Manifest: Manifest{RunID: runID}}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rel, err := filepath.Rel(root, file)
		if err != nil || !filepath.IsLocal(rel) {
			return result, fmt.Errorf("r2client: %s is outside %s", file, root)
		}

		data, err := os.ReadFile(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("r2client: read %s: %w", file, err)
		}

		compressed, err := Compress(bytes.NewReader(data))
		if err != nil {
			return result, err
		}
		sum := md5.Sum(compressed) //nolint:gosec // content fingerprint only
		etag := hex.EncodeToString(sum[:])

		relSlash := filepath.ToSlash(rel)
		key := path.Join(prefix, relSlash+".zst")

		current, err := store.HeadObject(ctx, key)
		switch {
		case err == nil && current == etag:
			result.Unchanged++
		case err == nil || errors.Is(err, ErrNotFound):
			uploaded, err := store.Upload(ctx, key, bytes.NewReader(compressed), "application/zstd")
			if err != nil {
				return result, err
			}
			if uploaded != "" {
				etag = uploaded
			}
			result.Uploaded++
		default:
			return result, err
		}

		result.Manifest.Files = append(result.Manifest.Files, ManifestFile{
			Path: relSlash,
			Key:  key,
			Size: int64(len(data)),
			ETag: etag,
		})
	}

	result.Manifest.PublishedAt = time.Now().UTC()
	body, err := json.MarshalIndent(result.Manifest, "", "  ")
	if err != nil {
		return result, fmt.Errorf("r2client: marshal manifest: %w", err)
	}
	if _, err := store.Upload(ctx, path.Join(prefix, ManifestName), bytes.NewReader(body), "application/json"); err != nil {
		return result, err
	}
	return result, nil
}

// FetchManifest downloads and decodes the manifest under prefix.
func FetchManifest(ctx context.Context, store ObjectStore, prefix string) (Manifest, error) {
	var m Manifest
	body, _, err := store.Download(ctx, path.Join(prefix, ManifestName))
	if err != nil {
		return m, err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(&m); err != nil {
		return m, fmt.Errorf("r2client: decode manifest: %w", err)
	}
	return m, nil
}

// Pull restores every table listed in the manifest under prefix into root.
// Entries whose path would escape root are rejected before anything is
// written.
func Pull(ctx context.Context, store ObjectStore, prefix, root string) (Manifest, error) {
	m, err := FetchManifest(ctx, store, prefix)
	if err != nil {
		return m, err
	}
	for _, f := range m.Files {
		if !filepath.IsLocal(filepath.FromSlash(f.Path)) {
			return m, fmt.Errorf("r2client: manifest path %q is not local", f.Path)
		}
	}

	for _, f := range m.Files {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		body, _, err := store.Download(ctx, f.Key)
		if err != nil {
			return m, err
		}
		err = DecompressStream(body, filepath.Join(root, filepath.FromSlash(f.Path)))
		body.Close()
		if err != nil {
			return m, fmt.Errorf("r2client: restore %s: %w", f.Path, err)
		}
	}
	return m, nil
}
