package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v3"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/world"
)

// BadgerStore keeps columns in a BadgerDB under column/<terrain>/<x>/<z>.
type BadgerStore struct {
	db     *badger.DB
	prefix string
	log    *logging.Logger
}

// badgerLogger forwards badger's internal messages to a component logger.
// Badger's own info chatter is demoted to debug.
type badgerLogger struct {
	log *logging.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(strings.TrimSuffix(format, "\n"), args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(strings.TrimSuffix(format, "\n"), args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(strings.TrimSuffix(format, "\n"), args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Trace(strings.TrimSuffix(format, "\n"), args...)
}

func OpenBadger(path string, terrain world.TerrainType, log *logging.Logger) (*BadgerStore, error) {
	if log == nil {
		log = logging.Component("storage")
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = badgerLogger{log: log}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &BadgerStore{db: db, prefix: "column/" + terrain.String() + "/", log: log}, nil
}

func (b *BadgerStore) key(pos coord.Column) []byte {
	return []byte(b.prefix + strconv.Itoa(pos.X) + "/" + strconv.Itoa(pos.Z))
}

func (b *BadgerStore) SaveColumn(col *world.Column) error {
	data := EncodeColumn(col)
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(col.Pos), data)
	})
	if err != nil {
		return fmt.Errorf("badger save %v: %w", col.Pos, err)
	}
	return nil
}

func (b *BadgerStore) LoadColumn(pos coord.Column, dims world.Dimensions) (*world.Column, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(pos))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, pos)
	}
	if err != nil {
		return nil, fmt.Errorf("badger load %v: %w", pos, err)
	}

	col, err := DecodeColumn(data, pos, dims)
	if errors.Is(err, ErrCorrupt) {
		b.log.Warn("Deleting corrupt column %v: %v", pos, err)
		if delErr := b.db.Update(func(txn *badger.Txn) error { return txn.Delete(b.key(pos)) }); delErr != nil {
			b.log.Error("Failed to delete column %v: %v", pos, delErr)
		}
	}
	return col, err
}

func (b *BadgerStore) Columns() ([]coord.Column, error) {
	var out []coord.Column
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(b.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			rest := strings.TrimPrefix(string(it.Item().Key()), b.prefix)
			xs, zs, ok := strings.Cut(rest, "/")
			if !ok {
				continue
			}
			x, errX := strconv.Atoi(xs)
			z, errZ := strconv.Atoi(zs)
			if errX != nil || errZ != nil {
				continue
			}
			out = append(out, coord.Column{X: x, Z: z})
		}
		return nil
	})
	return out, err
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}
