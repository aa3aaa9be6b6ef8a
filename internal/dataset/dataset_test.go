package dataset

import (
	"errors"
	"strings"
	"testing"
)

const header = "track_id,track_name,artists,track_genre," +
	"danceability,energy,loudness,speechiness,acousticness," +
	"instrumentalness,liveness,valence,tempo,duration_ms,popularity"

func row(id, name, artists, genre string, features string) string {
	return strings.Join([]string{id, name, artists, genre, features}, ",")
}

const (
	featA = "0.8,0.9,-5.0,0.05,0.1,0.0,0.12,0.95,120.0,210000,75"
	featB = "0.3,0.2,-12.5,0.04,0.85,0.6,0.1,0.15,85.0,180000,40"
)

func TestRead(t *testing.T) {
	input := strings.Join([]string{
		header,
		row("id1", "Dancing Queen", "ABBA", "disco", featA),
		row("id2", "Something Blue", "Ana Blue", "acoustic", featB),
		row("id3", "No Energy", "Anon", "pop", "0.5,,-7.0,0.05,0.2,0.0,0.1,0.5,100.0,200000,50"),
		row("id4", "Bad Tempo", "Anon", "pop", "0.5,0.5,-7.0,0.05,0.2,0.0,0.1,0.5,fast,200000,50"),
	}, "\n")

	tbl, err := Read(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got := tbl.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if got := tbl.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}

	track := tbl.Track(0)
	if track.Name != "Dancing Queen" || track.Artists != "ABBA" || track.Genre != "disco" {
		t.Errorf("Track(0) = %+v, want Dancing Queen/ABBA/disco", track)
	}

	feats := tbl.FeatureRow(1)
	if len(feats) != len(FeatureColumns()) {
		t.Fatalf("FeatureRow(1) has %d values, want %d", len(feats), len(FeatureColumns()))
	}
	if feats[0] != 0.3 {
		t.Errorf("FeatureRow(1)[0] = %v, want 0.3", feats[0])
	}
	if tempo := feats[tbl.ColumnIndex("tempo")]; tempo != 85.0 {
		t.Errorf("tempo = %v, want 85.0", tempo)
	}
}

func TestReadSchemaError(t *testing.T) {
	input := strings.Join([]string{
		"track_id,track_name,track_genre,danceability,energy,speechiness," +
			"acousticness,instrumentalness,liveness,valence,tempo,duration_ms,popularity",
		"id1,Song,pop,0.5,0.5,0.05,0.2,0.0,0.1,0.5,100.0,200000,50",
	}, "\n")

	_, err := Read(strings.NewReader(input), nil)

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Read() error = %v, want *SchemaError", err)
	}
	for _, want := range []string{"loudness", "artists"} {
		found := false
		for _, col := range schemaErr.Missing {
			if col == want {
				found = true
			}
		}
		if !found {
			t.Errorf("SchemaError.Missing = %v, want it to include %q", schemaErr.Missing, want)
		}
	}
}

func TestReadNoUsableRows(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "header only",
			input: header,
		},
		{
			name: "all rows incomplete",
			input: strings.Join([]string{
				header,
				row("id1", "Song A", "A", "pop", "0.5,,-7.0,0.05,0.2,0.0,0.1,0.5,100.0,200000,50"),
				row("id2", "Song B", "B", "pop", ",0.5,-7.0,0.05,0.2,0.0,0.1,0.5,100.0,200000,50"),
			}, "\n"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), nil)
			if !errors.Is(err, ErrNoUsableRows) {
				t.Errorf("Read() error = %v, want ErrNoUsableRows", err)
			}
		})
	}
}

func TestReadKeepsEmptyMetadata(t *testing.T) {
	input := strings.Join([]string{
		header,
		row("", "Nameless ID", "Someone", "", featA),
	}, "\n")

	tbl, err := Read(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	track := tbl.Track(0)
	if track.ID != "" {
		t.Errorf("Track(0).ID = %q, want empty", track.ID)
	}
	if track.Genre != "" {
		t.Errorf("Track(0).Genre = %q, want empty", track.Genre)
	}
	if track.Name != "Nameless ID" {
		t.Errorf("Track(0).Name = %q, want %q", track.Name, "Nameless ID")
	}
}

func TestColumnIndex(t *testing.T) {
	input := strings.Join([]string{header, row("id1", "Song", "A", "pop", featA)}, "\n")

	tbl, err := Read(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := tbl.ColumnIndex("danceability"); got != 0 {
		t.Errorf("ColumnIndex(danceability) = %d, want 0", got)
	}
	if got := tbl.ColumnIndex("popularity"); got != 10 {
		t.Errorf("ColumnIndex(popularity) = %d, want 10", got)
	}
	if got := tbl.ColumnIndex("mood"); got != -1 {
		t.Errorf("ColumnIndex(mood) = %d, want -1", got)
	}
}
