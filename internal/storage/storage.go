// Package storage persists world columns. Every backend stores the same
// versioned column encoding, keyed by terrain type and column coordinate.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/world"
)

var (
	// ErrNotFound means nothing is stored for a column. It is the store's own sentinel.
	ErrNotFound = world.ErrColumnNotFound
	// ErrVersionMismatch means the data was written by an incompatible format or world shape.
	ErrVersionMismatch = errors.New("column format version mismatch")
	// ErrCorrupt means the data could not be decoded. Backends delete such entries.
	ErrCorrupt = errors.New("corrupt column data")
)

// Backend is a world.Persister that owns resources.
type Backend interface {
	world.Persister
	// Columns lists every stored column position.
	Columns() ([]coord.Column, error)
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindBadger = "badger"
	KindSQLite = "sqlite"
)

// Open creates the backend of the given kind under root/saveName.
func Open(kind, root, saveName string, terrain world.TerrainType) (Backend, error) {
	dir := filepath.Join(root, saveName)
	log := logging.Component("storage")
	switch strings.ToLower(kind) {
	case "", KindFile:
		return NewFileStore(dir, terrain, log)
	case KindBadger:
		return OpenBadger(filepath.Join(dir, "badger"), terrain, log)
	case KindSQLite:
		return OpenSQLite(filepath.Join(dir, "world.db"), terrain, log)
	}
	return nil, fmt.Errorf("unknown storage backend %q", kind)
}
