package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/world"
)

const columnExt = ".column"

// FileStore keeps one file per column at <dir>/<terrain>/<x>_<z>.column.
type FileStore struct {
	dir string
	log *logging.Logger
}

func NewFileStore(dir string, terrain world.TerrainType, log *logging.Logger) (*FileStore, error) {
	dir = filepath.Join(dir, terrain.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save directory: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) path(pos coord.Column) string {
	return filepath.Join(f.dir, fmt.Sprintf("%d_%d%s", pos.X, pos.Z, columnExt))
}

// SaveColumn writes through a temporary file renamed into place. A failed
// write leaves no partial file behind.
func (f *FileStore) SaveColumn(col *world.Column) error {
	target := f.path(col.Pos)
	tmp, err := os.CreateTemp(f.dir, filepath.Base(target)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func(cause error) error {
		_ = tmp.Close()
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			f.log.Warn("Failed to remove partial file %s: %v", tmp.Name(), rmErr)
		}
		return cause
	}

	if _, err := tmp.Write(EncodeColumn(col)); err != nil {
		return cleanup(fmt.Errorf("write column %v: %w", col.Pos, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync column %v: %w", col.Pos, err))
	}
	if err := tmp.Close(); err != nil {
		return cleanup(fmt.Errorf("close column %v: %w", col.Pos, err))
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return cleanup(fmt.Errorf("rename column %v: %w", col.Pos, err))
	}
	return nil
}

// LoadColumn reads a column file. Undecodable files are deleted.
func (f *FileStore) LoadColumn(pos coord.Column, dims world.Dimensions) (*world.Column, error) {
	path := f.path(pos)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, pos)
	}
	if err != nil {
		return nil, fmt.Errorf("read column %v: %w", pos, err)
	}

	col, err := DecodeColumn(data, pos, dims)
	if errors.Is(err, ErrCorrupt) {
		f.log.Warn("Deleting corrupt column file %s: %v", path, err)
		if rmErr := os.Remove(path); rmErr != nil {
			f.log.Error("Failed to delete %s: %v", path, rmErr)
		}
	}
	return col, err
}

func (f *FileStore) Columns() ([]coord.Column, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var out []coord.Column
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), columnExt)
		if !ok || e.IsDir() {
			continue
		}
		var pos coord.Column
		if _, err := fmt.Sscanf(name, "%d_%d", &pos.X, &pos.Z); err != nil {
			continue
		}
		out = append(out, pos)
	}
	return out, nil
}

func (f *FileStore) Close() error { return nil }
