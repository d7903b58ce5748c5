package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
)

// FileStore keeps leads in a single JSON array file.
type FileStore struct {
	path     string
	maxLeads int
	log      *zap.Logger
}

// NewFileStore returns a FileStore at path. Save keeps at most maxLeads
// records; zero means unbounded.
func NewFileStore(path string, maxLeads int, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, maxLeads: maxLeads, log: logger}
}

// Load reads all leads. A missing file is an empty store. A file that does
// not decode is logged and treated as empty so a damaged store never blocks a
// cycle; the next Save replaces it.
func (s *FileStore) Load(_ context.Context) ([]model.Lead, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Lead{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", s.path)
	}

	var leads []model.Lead
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &leads); err != nil {
			s.log.Warn("store: leads file is corrupt, starting empty",
				zap.String("path", s.path),
				zap.Error(err),
			)
			return []model.Lead{}, nil
		}
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	return leads, nil
}

// Save atomically replaces the file with leads, truncated to the newest
// maxLeads records.
func (s *FileStore) Save(_ context.Context, leads []model.Lead) error {
	leads = Truncate(leads, s.maxLeads)
	if leads == nil {
		leads = []model.Lead{}
	}

	data, err := EncodeJSON(leads)
	if err != nil {
		return eris.Wrap(err, "store: encode leads")
	}
	if err := WriteFileAtomic(s.path, data, 0o644); err != nil {
		return eris.Wrap(err, "store: save leads")
	}
	s.log.Debug("store: saved leads", zap.String("path", s.path), zap.Int("count", len(leads)))
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// EncodeJSON encodes v as indented JSON without HTML escaping, the layout of
// every file the agent writes.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renameFile is swapped in tests to simulate a failed commit.
var renameFile = os.Rename

// WriteFileAtomic writes data to a temp file next to path, syncs it, and
// renames it over path. On any failure the temp file is removed and the
// existing file is left untouched.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "store: create temp file")
	}
	tmpPath := tmp.Name()
	keepFile := false
	defer func() {
		_ = tmp.Close()
		if !keepFile {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return eris.Wrapf(err, "store: write %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		return eris.Wrapf(err, "store: sync %s", tmpPath)
	}
	if err := tmp.Chmod(perm); err != nil {
		return eris.Wrapf(err, "store: chmod %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "store: close %s", tmpPath)
	}
	if err := renameFile(tmpPath, path); err != nil {
		return eris.Wrapf(err, "store: rename to %s", path)
	}
	keepFile = true
	return nil
}
