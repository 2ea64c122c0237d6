package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/world"
)

// SQLiteStore keeps columns in one table keyed by terrain and position.
type SQLiteStore struct {
	db      *sql.DB
	terrain string
	log     *logging.Logger
}

func OpenSQLite(path string, terrain world.TerrainType, log *logging.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, terrain: terrain.String(), log: log}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS columns (
			world_type TEXT NOT NULL,
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			data BLOB NOT NULL,
			saved_at INTEGER NOT NULL,
			PRIMARY KEY (world_type, x, z)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("sqlite init %q: %w", s, err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveColumn(col *world.Column) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO columns (world_type, x, z, data, saved_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (world_type, x, z) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		s.terrain, col.Pos.X, col.Pos.Z, EncodeColumn(col), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite save %v: %w", col.Pos, err)
	}
	return nil
}

func (s *SQLiteStore) LoadColumn(pos coord.Column, dims world.Dimensions) (*world.Column, error) {
	var data []byte
	err := s.db.QueryRowContext(context.Background(),
		`SELECT data FROM columns WHERE world_type = ? AND x = ? AND z = ?`,
		s.terrain, pos.X, pos.Z).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, pos)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite load %v: %w", pos, err)
	}

	col, err := DecodeColumn(data, pos, dims)
	if errors.Is(err, ErrCorrupt) {
		s.log.Warn("Deleting corrupt column %v: %v", pos, err)
		if _, delErr := s.db.Exec(`DELETE FROM columns WHERE world_type = ? AND x = ? AND z = ?`, s.terrain, pos.X, pos.Z); delErr != nil {
			s.log.Error("Failed to delete column %v: %v", pos, delErr)
		}
	}
	return col, err
}

func (s *SQLiteStore) Columns() ([]coord.Column, error) {
	rows, err := s.db.Query(`SELECT x, z FROM columns WHERE world_type = ? ORDER BY x, z`, s.terrain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []coord.Column
	for rows.Next() {
		var pos coord.Column
		if err := rows.Scan(&pos.X, &pos.Z); err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
