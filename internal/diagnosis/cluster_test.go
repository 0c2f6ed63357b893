package diagnosis

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

var base = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func symptomAt(offset time.Duration, severity int) domain.Symptom {
	return domain.Symptom{
		ID:        uuid.New(),
		StartTime: base.Add(offset),
		Tags:      []domain.SymptomTag{{Name: "bloating", Severity: severity}},
	}
}

func TestClusterEpisodes_WithinWindow(t *testing.T) {
	symptoms := []domain.Symptom{
		symptomAt(0, 5),
		symptomAt(1*time.Hour, 7),
		symptomAt(3*time.Hour, 4),
	}

	episodes := ClusterEpisodes(symptoms)
	if len(episodes) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(episodes))
	}
	if got := episodes[0].MaxSeverity(); got != 7 {
		t.Errorf("MaxSeverity() = %d, want 7", got)
	}
	if len(episodes[0].Tags()) != 3 {
		t.Errorf("expected 3 tags, got %d", len(episodes[0].Tags()))
	}
}

func TestClusterEpisodes_SplitsAfterWindow(t *testing.T) {
	symptoms := []domain.Symptom{
		symptomAt(0, 5),
		symptomAt(2*time.Hour, 6),
		// 5 часов от начала первого эпизода — новый эпизод
		symptomAt(5*time.Hour, 3),
	}

	episodes := ClusterEpisodes(symptoms)
	if len(episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(episodes))
	}
	if len(episodes[0].Symptoms) != 2 || len(episodes[1].Symptoms) != 1 {
		t.Errorf("episode sizes = %d/%d, want 2/1",
			len(episodes[0].Symptoms), len(episodes[1].Symptoms))
	}
}

func TestClusterEpisodes_ExplicitEpisodeID(t *testing.T) {
	episodeID := uuid.New()

	s1 := symptomAt(0, 5)
	s1.EpisodeID = &episodeID
	// 10 часов спустя, но тот же эпизод
	s2 := symptomAt(10*time.Hour, 6)
	s2.EpisodeID = &episodeID

	episodes := ClusterEpisodes([]domain.Symptom{s1, s2})
	if len(episodes) != 1 {
		t.Fatalf("expected 1 episode for shared episode_id, got %d", len(episodes))
	}
	if len(episodes[0].Symptoms) != 2 {
		t.Errorf("expected 2 symptoms in episode, got %d", len(episodes[0].Symptoms))
	}
}

func TestClusterEpisodes_Empty(t *testing.T) {
	if episodes := ClusterEpisodes(nil); episodes != nil {
		t.Errorf("expected nil for empty input, got %v", episodes)
	}
}
