package library

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func sampleTracks() []Track {
	return []Track{
		{ID: "id-1", Name: "Alpha", Artists: "Ann", Genre: "pop"},
		{ID: "id-2", Name: "Beta", Artists: "Ben", Genre: "rock"},
	}
}

func TestSavePlaylistRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SavePlaylist(ctx, "road trip", sampleTracks())
	if err != nil {
		t.Fatalf("SavePlaylist() error = %v", err)
	}
	if saved.ID == uuid.Nil {
		t.Error("SavePlaylist() returned nil UUID")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("SavePlaylist() returned zero CreatedAt")
	}

	got, err := store.GetPlaylist(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetPlaylist() error = %v", err)
	}
	if got.Name != "road trip" {
		t.Errorf("Name = %q, want %q", got.Name, "road trip")
	}
	if got.TrackCount != 2 {
		t.Errorf("TrackCount = %d, want 2", got.TrackCount)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, saved.CreatedAt)
	}
	if !reflect.DeepEqual(got.Tracks, sampleTracks()) {
		t.Errorf("Tracks = %+v, want %+v", got.Tracks, sampleTracks())
	}
}

func TestSavePlaylistKeepsTrackOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tracks := []Track{
		{ID: "z", Name: "Zeta"},
		{ID: "a", Name: "Alpha"},
		{ID: "m", Name: "Mu"},
	}
	saved, err := store.SavePlaylist(ctx, "ordered", tracks)
	if err != nil {
		t.Fatalf("SavePlaylist() error = %v", err)
	}

	got, err := store.GetPlaylist(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetPlaylist() error = %v", err)
	}
	for i := 0; i < len(tracks); i++ {
		if got.Tracks[i].ID != tracks[i].ID {
			t.Errorf("Tracks[%d].ID = %q, want %q", i, got.Tracks[i].ID, tracks[i].ID)
		}
	}
}

func TestSavePlaylistEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SavePlaylist(ctx, "empty", nil)
	if err != nil {
		t.Fatalf("SavePlaylist() error = %v", err)
	}

	got, err := store.GetPlaylist(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetPlaylist() error = %v", err)
	}
	if got.TrackCount != 0 {
		t.Errorf("TrackCount = %d, want 0", got.TrackCount)
	}
	if len(got.Tracks) != 0 {
		t.Errorf("Tracks = %+v, want none", got.Tracks)
	}
}

func TestListPlaylists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.SavePlaylist(ctx, "first", sampleTracks()[:1])
	if err != nil {
		t.Fatalf("SavePlaylist() error = %v", err)
	}
	second, err := store.SavePlaylist(ctx, "second", sampleTracks())
	if err != nil {
		t.Fatalf("SavePlaylist() error = %v", err)
	}

	playlists, err := store.ListPlaylists(ctx)
	if err != nil {
		t.Fatalf("ListPlaylists() error = %v", err)
	}
	if len(playlists) != 2 {
		t.Fatalf("ListPlaylists() returned %d playlists, want 2", len(playlists))
	}
	if playlists[0].ID != second.ID {
		t.Errorf("playlists[0].ID = %v, want newest %v", playlists[0].ID, second.ID)
	}
	if playlists[1].ID != first.ID {
		t.Errorf("playlists[1].ID = %v, want oldest %v", playlists[1].ID, first.ID)
	}
	if playlists[0].TrackCount != 2 {
		t.Errorf("playlists[0].TrackCount = %d, want 2", playlists[0].TrackCount)
	}
	if playlists[1].TrackCount != 1 {
		t.Errorf("playlists[1].TrackCount = %d, want 1", playlists[1].TrackCount)
	}
	if len(playlists[0].Tracks) != 0 {
		t.Errorf("ListPlaylists() included tracks: %+v", playlists[0].Tracks)
	}
}

func TestListPlaylistsEmpty(t *testing.T) {
	store := newTestStore(t)

	playlists, err := store.ListPlaylists(context.Background())
	if err != nil {
		t.Fatalf("ListPlaylists() error = %v", err)
	}
	if len(playlists) != 0 {
		t.Errorf("ListPlaylists() returned %d playlists, want 0", len(playlists))
	}
}

func TestGetPlaylistNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPlaylist(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPlaylist() error = %v, want ErrNotFound", err)
	}
}

func TestDeletePlaylist(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SavePlaylist(ctx, "doomed", sampleTracks())
	if err != nil {
		t.Fatalf("SavePlaylist() error = %v", err)
	}

	if err := store.DeletePlaylist(ctx, saved.ID); err != nil {
		t.Fatalf("DeletePlaylist() error = %v", err)
	}
	if _, err := store.GetPlaylist(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPlaylist() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.DeletePlaylist(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeletePlaylist() twice error = %v, want ErrNotFound", err)
	}
}
