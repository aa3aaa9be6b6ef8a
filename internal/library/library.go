// Package library persists saved playlists in a local SQLite database.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a playlist does not exist.
var ErrNotFound = errors.New("playlist not found")

// Playlist is a named set of saved tracks.
type Playlist struct {
	ID         uuid.UUID
	Name       string
	CreatedAt  time.Time
	TrackCount int
	Tracks     []Track
}

// Track is one saved playlist entry.
type Track struct {
	ID      string
	Name    string
	Artists string
	Genre   string
}

// Store wraps the SQLite database holding saved playlists.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the playlist database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// The pure-Go driver returns SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			name TEXT NOT NULL,
			artists TEXT NOT NULL,
			genre TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (playlist_id, position)
		);
	`)
	return err
}

// SavePlaylist stores a new playlist with its tracks and returns it.
func (s *Store) SavePlaylist(ctx context.Context, name string, tracks []Track) (*Playlist, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p := &Playlist{
		ID:         uuid.New(),
		Name:       name,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		TrackCount: len(tracks),
		Tracks:     tracks,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO playlists (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting playlist: %w", err)
	}

	for i := 0; i < len(tracks); i++ {
		t := tracks[i]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO playlist_tracks (playlist_id, position, track_id, name, artists, genre)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, i, t.ID, t.Name, t.Artists, t.Genre,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting playlist track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return p, nil
}

// GetPlaylist retrieves a playlist with its tracks in saved order.
func (s *Store) GetPlaylist(ctx context.Context, id uuid.UUID) (*Playlist, error) {
	var p Playlist
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM playlists WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist: %w", err)
	}
	p.CreatedAt = time.Unix(created, 0).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id, name, artists, genre FROM playlist_tracks
		 WHERE playlist_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying playlist tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Name, &t.Artists, &t.Genre); err != nil {
			return nil, fmt.Errorf("scanning playlist track: %w", err)
		}
		p.Tracks = append(p.Tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	p.TrackCount = len(p.Tracks)
	return &p, nil
}

// ListPlaylists returns all playlists, newest first, without their tracks.
func (s *Store) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	query := `
		SELECT p.id, p.name, p.created_at, COUNT(t.playlist_id)
		FROM playlists p
		LEFT JOIN playlist_tracks t ON p.id = t.playlist_id
		GROUP BY p.id, p.name, p.created_at
		ORDER BY p.created_at DESC, p.rowid DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		var created int64
		if err := rows.Scan(&p.ID, &p.Name, &created, &p.TrackCount); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		p.CreatedAt = time.Unix(created, 0).UTC()
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// DeletePlaylist removes a playlist and its tracks.
func (s *Store) DeletePlaylist(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, id); err != nil {
		return fmt.Errorf("deleting playlist tracks: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting playlist: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
