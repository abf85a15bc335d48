package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dexfetch/dexfetch/iox"
	"github.com/dexfetch/dexfetch/types"
)

// recordSuffix is the filename suffix for committed record documents.
const recordSuffix = ".json"

// FSStore stores one <item>.json per item under a root directory.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at dir, creating the
// directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("fs store: root directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Key: dir, Kind: ErrCommitFailed, Err: err}
	}
	return &FSStore{root: dir}, nil
}

// Root returns the store's root directory.
func (s *FSStore) Root() string { return s.root }

// Path returns the final path for an item's document.
func (s *FSStore) Path(item types.Item) string {
	return filepath.Join(s.root, item.String()+recordSuffix)
}

// ReadRecord returns the committed document for an item.
func (s *FSStore) ReadRecord(_ context.Context, item types.Item) ([]byte, error) {
	data, err := os.ReadFile(s.Path(item))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StorageError{Op: "read", Key: item.String(), Kind: ErrNoRecord, Err: err}
		}
		return nil, &StorageError{Op: "read", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}
	return data, nil
}

// CommitRecord writes the document through a same-directory temp file
// and atomically renames it into place. A crash mid-write leaves only a
// temp file, never a partial document at the final path.
func (s *FSStore) CommitRecord(_ context.Context, item types.Item, data []byte) error {
	tmp, err := os.CreateTemp(s.root, item.String()+"-*.tmp")
	if err != nil {
		return &StorageError{Op: "commit", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		iox.DiscardClose(tmp)
		_ = os.Remove(tmpName)
		return &StorageError{Op: "commit", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "commit", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}

	if err := os.Rename(tmpName, s.Path(item)); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "commit", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}
	return nil
}

// Remove deletes the document for an item. Absent documents are ignored.
func (s *FSStore) Remove(_ context.Context, item types.Item) error {
	err := os.Remove(s.Path(item))
	if err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "remove", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}
	return nil
}

// List returns the items with committed documents, sorted by name.
// Leftover temp files are not listed.
func (s *FSStore) List(_ context.Context) ([]types.Item, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &StorageError{Op: "list", Key: s.root, Kind: ErrCommitFailed, Err: err}
	}

	var items []types.Item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordSuffix) {
			continue
		}
		items = append(items, types.Item(strings.TrimSuffix(name, recordSuffix)))
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items, nil
}

// Clean removes every committed document and leftover temp file.
func (s *FSStore) Clean(ctx context.Context) error {
	items, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := s.Remove(ctx, it); err != nil {
			return err
		}
	}
	// Sweep orphaned temp files from interrupted commits.
	stale, err := filepath.Glob(filepath.Join(s.root, "*.tmp"))
	if err != nil {
		return err
	}
	for _, p := range stale {
		_ = os.Remove(p)
	}
	return nil
}

// Close is a no-op for the filesystem backend.
func (s *FSStore) Close() error { return nil }

// Verify FSStore implements Store.
var _ Store = (*FSStore)(nil)
