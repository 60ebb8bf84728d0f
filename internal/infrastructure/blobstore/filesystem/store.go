// Package filesystem stores uploaded blobs as plain files in one directory so
// they can be served statically. Display names live in JSON sidecars under a
// hidden metadata directory; dot-prefixed entries are never listed.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"localdrop/internal/domain/media"
)

const (
	metaDir = ".meta"
	tmpDir  = ".tmp"
)

type sidecar struct {
	DisplayName string `json:"display_name"`
}

// Store implements media.BlobStore on the local filesystem.
type Store struct {
	basePath string
	link     func(oldname, newname string) error
	// set once the filesystem refused a hard link (FAT, exFAT, some SMB mounts)
	noLinks atomic.Bool
}

// New creates the storage directory tree if needed.
func New(basePath string) (*Store, error) {
	s := &Store{basePath: basePath, link: os.Link}
	if err := s.EnsureDir(); err != nil {
		return nil, err
	}
	s.clearTmp()
	return s, nil
}

// clearTmp removes temp and claim files left behind by a crashed process.
func (s *Store) clearTmp() {
	entries, err := os.ReadDir(s.path(tmpDir))
	if err != nil {
		return
	}
	for _, e := range entries {
		_ = os.Remove(filepath.Join(s.path(tmpDir), e.Name()))
	}
}

// EnsureDir creates the storage directories if they don't exist.
func (s *Store) EnsureDir() error {
	for _, dir := range []string{s.basePath, s.path(metaDir), s.path(tmpDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return nil
}

func (s *Store) Dir() string { return s.basePath }

// Put writes the blob under its identifier and returns the stored record.
// The sidecar claims the identifier first (hard links fail on an existing
// target), then the content is linked into place, so a visible data file
// is always complete.
func (s *Store) Put(_ context.Context, blob media.Blob) (*media.FileRecord, error) {
	if err := checkIdentifier(blob.Identifier); err != nil {
		return nil, &media.StorageError{Op: "put", Identifier: blob.Identifier, Err: err}
	}
	if blob.DisplayName == "" {
		blob.DisplayName = blob.Identifier
	}

	meta, err := json.Marshal(sidecar{DisplayName: blob.DisplayName})
	if err != nil {
		return nil, &media.StorageError{Op: "put", Identifier: blob.Identifier, Err: err}
	}

	metaPath := s.metaPath(blob.Identifier)
	if err := s.linkExclusive(meta, metaPath); err != nil {
		return nil, &media.StorageError{Op: "put", Identifier: blob.Identifier, Err: err}
	}

	if _, err := s.WriteContent(blob.Identifier, blob.Content); err != nil {
		_ = os.Remove(metaPath)
		return nil, err
	}

	info, err := os.Stat(s.path(blob.Identifier))
	if err != nil {
		return nil, &media.StorageError{Op: "stat", Identifier: blob.Identifier, Err: err}
	}

	return &media.FileRecord{
		Identifier:      blob.Identifier,
		DisplayName:     blob.DisplayName,
		Kind:            media.KindOf(blob.Identifier),
		SizeBytes:       info.Size(),
		CreatedAtMillis: info.ModTime().UnixMilli(),
	}, nil
}

// WriteContent durably writes content under identifier and fails with
// media.ErrAlreadyExists if the identifier is taken. It reports the file's
// modification time in milliseconds.
func (s *Store) WriteContent(identifier string, content []byte) (int64, error) {
	if err := checkIdentifier(identifier); err != nil {
		return 0, &media.StorageError{Op: "write", Identifier: identifier, Err: err}
	}
	dataPath := s.path(identifier)
	if err := s.linkExclusive(content, dataPath); err != nil {
		return 0, &media.StorageError{Op: "write", Identifier: identifier, Err: err}
	}

	info, err := os.Stat(dataPath)
	if err != nil {
		return 0, &media.StorageError{Op: "stat", Identifier: identifier, Err: err}
	}
	return info.ModTime().UnixMilli(), nil
}

// Remove deletes stored content. A missing file is not an error.
func (s *Store) Remove(identifier string) error {
	if err := os.Remove(s.path(identifier)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", identifier, err)
	}
	_ = os.Remove(s.metaPath(identifier))
	return nil
}

// List returns every stored file, newest first.
func (s *Store) List(ctx context.Context) (media.Snapshot, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, &media.StorageError{Op: "list", Err: err}
	}

	snap := make(media.Snapshot, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, &media.StorageError{Op: "list", Err: err}
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || !e.Type().IsRegular() {
			continue
		}

		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &media.StorageError{Op: "list", Identifier: name, Err: err}
		}

		snap = append(snap, media.FileRecord{
			Identifier:      name,
			DisplayName:     s.displayName(name),
			Kind:            media.KindOf(name),
			SizeBytes:       info.Size(),
			CreatedAtMillis: info.ModTime().UnixMilli(),
		})
	}

	sort.SliceStable(snap, func(i, j int) bool {
		if snap[i].CreatedAtMillis != snap[j].CreatedAtMillis {
			return snap[i].CreatedAtMillis > snap[j].CreatedAtMillis
		}
		return snap[i].Identifier > snap[j].Identifier
	})

	return snap, nil
}

// Open returns the content of a listed file. Dotfiles are never served.
func (s *Store) Open(_ context.Context, identifier string) (io.ReadSeekCloser, *media.FileRecord, error) {
	if err := checkIdentifier(identifier); err != nil {
		return nil, nil, &media.StorageError{Op: "open", Identifier: identifier, Err: media.ErrNotFound}
	}

	f, err := os.Open(s.path(identifier))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = media.ErrNotFound
		}
		return nil, nil, &media.StorageError{Op: "open", Identifier: identifier, Err: err}
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		if err == nil {
			err = media.ErrNotFound
		}
		return nil, nil, &media.StorageError{Op: "open", Identifier: identifier, Err: err}
	}

	return f, &media.FileRecord{
		Identifier:      identifier,
		DisplayName:     s.displayName(identifier),
		Kind:            media.KindOf(identifier),
		SizeBytes:       info.Size(),
		CreatedAtMillis: info.ModTime().UnixMilli(),
	}, nil
}

func (s *Store) displayName(identifier string) string {
	b, err := os.ReadFile(s.metaPath(identifier))
	if err != nil {
		return identifier
	}
	var m sidecar
	if err := json.Unmarshal(b, &m); err != nil || m.DisplayName == "" {
		return identifier
	}
	return m.DisplayName
}

// linkExclusive writes data to a private temp file, fsyncs it and hard-links
// it to target. The link fails if target exists. Without hard-link support
// it falls back to renameExclusive.
func (s *Store) linkExclusive(data []byte, target string) error {
	tmpPath := filepath.Join(s.path(tmpDir), uuid.NewString())

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpPath)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if !s.noLinks.Load() {
		err = s.link(tmpPath, target)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, fs.ErrExist):
			return media.ErrAlreadyExists
		case errors.Is(err, errors.ErrUnsupported), errors.Is(err, fs.ErrPermission):
			s.noLinks.Store(true)
		default:
			return fmt.Errorf("failed to publish file: %w", err)
		}
	}

	return s.renameExclusive(tmpPath, target)
}

// renameExclusive publishes tmpPath as target without hard links. A claim
// file created with O_EXCL serializes writers of the same target, then the
// complete temp file is renamed into place.
func (s *Store) renameExclusive(tmpPath, target string) error {
	claimPath := filepath.Join(s.path(tmpDir), filepath.Base(filepath.Dir(target))+"_"+filepath.Base(target)+".claim")

	claim, err := os.OpenFile(claimPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return media.ErrAlreadyExists
		}
		return fmt.Errorf("failed to claim file: %w", err)
	}
	claim.Close()
	defer os.Remove(claimPath)

	if _, err = os.Lstat(target); err == nil {
		return media.ErrAlreadyExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check file: %w", err)
	}
	if err = os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to publish file: %w", err)
	}
	return nil
}

func (s *Store) path(name string) string { return filepath.Join(s.basePath, name) }

func (s *Store) metaPath(identifier string) string {
	return filepath.Join(s.basePath, metaDir, identifier+".json")
}

func checkIdentifier(identifier string) error {
	if identifier == "" || strings.HasPrefix(identifier, ".") ||
		strings.ContainsAny(identifier, `/\`) || identifier != filepath.Base(identifier) {
		return fmt.Errorf("unsafe identifier %q", identifier)
	}
	return nil
}
