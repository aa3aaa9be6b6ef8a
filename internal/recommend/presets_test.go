package recommend

import (
	"errors"
	"reflect"
	"sort"
	"testing"
)

func presetNames(infos []TrackInfo) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Track.Name
	}
	sort.Strings(names)
	return names
}

func TestRecommendByPreset(t *testing.T) {
	r := newTestRecommender(t)

	tests := []struct {
		mood      string
		wantNames []string
	}{
		// valence > 0.7 and energy > 0.5: the four high-energy rows.
		{mood: "happy", wantNames: []string{"Delta", "Epsilon", "Mirror", "Zeta"}},
		// energy > 0.75 and danceability > 0.6.
		{mood: "energetic", wantNames: []string{"Delta", "Epsilon", "Mirror", "Zeta"}},
		// energy < 0.5 and acousticness > 0.5: the mellow rows, with the
		// Alpha and Beta editions counted per row.
		{mood: "calm", wantNames: []string{"Alpha", "Alpha", "Beta", "Beta", "Gamma"}},
		// energy and valence in [0.3, 0.7]: only the mid-range Mirror.
		{mood: "focus", wantNames: []string{"Mirror"}},
		// tempo is 120 everywhere, so nothing is sad. Empty, not an error.
		{mood: "sad", wantNames: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.mood, func(t *testing.T) {
			got, err := r.RecommendByPreset(tt.mood, r.Len())
			if err != nil {
				t.Fatalf("RecommendByPreset(%q) error = %v", tt.mood, err)
			}
			if names := presetNames(got); !reflect.DeepEqual(names, tt.wantNames) {
				t.Errorf("RecommendByPreset(%q) = %v, want %v", tt.mood, names, tt.wantNames)
			}
		})
	}
}

func TestRecommendByPresetDeterministic(t *testing.T) {
	r := newTestRecommender(t)

	first, err := r.RecommendByPreset("happy", 2)
	if err != nil {
		t.Fatalf("RecommendByPreset() error = %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("len(sample) = %d, want 2", len(first))
	}

	second, err := r.RecommendByPreset("happy", 2)
	if err != nil {
		t.Fatalf("RecommendByPreset() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated preset sample differs:\n%v\n%v", first, second)
	}
}

func TestRecommendByPresetCaseInsensitive(t *testing.T) {
	r := newTestRecommender(t)

	got, err := r.RecommendByPreset("FOCUS", 5)
	if err != nil {
		t.Fatalf("RecommendByPreset(FOCUS) error = %v", err)
	}
	if len(got) != 1 || got[0].Track.Name != "Mirror" {
		t.Errorf("RecommendByPreset(FOCUS) = %v, want the single Mirror row", got)
	}
}

func TestRecommendByPresetUnknown(t *testing.T) {
	r := newTestRecommender(t)

	if _, err := r.RecommendByPreset("angry", 5); !errors.Is(err, ErrUnknownMood) {
		t.Errorf("RecommendByPreset(angry) error = %v, want ErrUnknownMood", err)
	}
}

func TestRecommendByPresetZeroCount(t *testing.T) {
	r := newTestRecommender(t)

	got, err := r.RecommendByPreset("happy", 0)
	if err != nil {
		t.Fatalf("RecommendByPreset(happy, 0) error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("RecommendByPreset(happy, 0) returned %d tracks, want 0", len(got))
	}
}

func TestPresets(t *testing.T) {
	want := []string{"calm", "energetic", "focus", "happy", "party", "sad"}
	if got := Presets(); !reflect.DeepEqual(got, want) {
		t.Errorf("Presets() = %v, want %v", got, want)
	}
}
