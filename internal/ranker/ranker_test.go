package ranker_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/contentq/internal/domain"
	"github.com/scribeworks/contentq/internal/ranker"
)

func makeIdea(urgency domain.Urgency, reach int, createdAt time.Time) domain.ContentIdea {
	return domain.ContentIdea{
		ID:             uuid.New(),
		Title:          "idea",
		Status:         domain.IdeaStatusPending,
		Urgency:        urgency,
		EstimatedReach: reach,
		CreatedAt:      createdAt,
	}
}

func TestRank_Ordering(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Insertion order: low/10 (oldest), high/5, high/20 (newest).
	ideas := []domain.ContentIdea{
		makeIdea(domain.UrgencyLow, 10, base),
		makeIdea(domain.UrgencyHigh, 5, base.Add(time.Minute)),
		makeIdea(domain.UrgencyHigh, 20, base.Add(2*time.Minute)),
	}

	ranked := ranker.Rank(ideas)

	want := []struct {
		urgency domain.Urgency
		reach   int
	}{
		{domain.UrgencyHigh, 20},
		{domain.UrgencyHigh, 5},
		{domain.UrgencyLow, 10},
	}

	for i, w := range want {
		if ranked[i].Urgency != w.urgency || ranked[i].EstimatedReach != w.reach {
			t.Errorf("ranked[%d] = %s/%d, want %s/%d",
				i, ranked[i].Urgency, ranked[i].EstimatedReach, w.urgency, w.reach)
		}
	}
}

func TestRank_TieBreakOldestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := makeIdea(domain.UrgencyMedium, 100, base)
	newer := makeIdea(domain.UrgencyMedium, 100, base.Add(time.Hour))

	ranked := ranker.Rank([]domain.ContentIdea{newer, older})

	if ranked[0].ID != older.ID {
		t.Error("oldest idea should rank first on equal urgency and reach")
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	ideas := []domain.ContentIdea{
		makeIdea(domain.UrgencyLow, 1, base),
		makeIdea(domain.UrgencyHigh, 1, base),
	}
	firstID := ideas[0].ID

	_ = ranker.Rank(ideas)

	if ideas[0].ID != firstID {
		t.Error("Rank must not reorder its input slice")
	}
	if ideas[0].Status != domain.IdeaStatusPending {
		t.Error("Rank must not mutate idea state")
	}
}

func TestRank_Deterministic(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	ideas := []domain.ContentIdea{
		makeIdea(domain.UrgencyMedium, 50, base),
		makeIdea(domain.UrgencyHigh, 10, base.Add(time.Second)),
		makeIdea(domain.UrgencyMedium, 50, base.Add(2*time.Second)),
		makeIdea(domain.UrgencyLow, 500, base.Add(3*time.Second)),
	}

	first := ranker.Rank(ideas)
	second := ranker.Rank(ideas)

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("rank order differs between runs at index %d", i)
		}
	}
}
