package sources

import (
	"errors"
	"testing"

	"NewsRefinery/internal/domain"
)

func TestActiveForLanguageOrdering(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Upsert(domain.Source{ID: "a", Language: "en", Active: true, Priority: 1, QualityScore: 0.9})
	reg.Upsert(domain.Source{ID: "b", Language: "en", Active: true, Priority: 5, QualityScore: 0.2})
	reg.Upsert(domain.Source{ID: "c", Language: "en", Active: true, Priority: 5, QualityScore: 0.8})
	reg.Upsert(domain.Source{ID: "d", Language: "en", Active: true, Priority: 5, QualityScore: 0.8})
	reg.Upsert(domain.Source{ID: "e", Language: "zh", Active: true, Priority: 9})
	reg.Upsert(domain.Source{ID: "f", Language: "en", Active: false, Priority: 9})

	got := reg.ActiveForLanguage("en")

	want := []string{"c", "d", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestUpsertKeepsInsertionOrderOnUpdate(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Upsert(domain.Source{ID: "first", Language: "en", Active: true, Priority: 1, QualityScore: 0.5})
	reg.Upsert(domain.Source{ID: "second", Language: "en", Active: true, Priority: 1, QualityScore: 0.5})

	// Updating a source must not move it behind later insertions.
	reg.Upsert(domain.Source{ID: "first", Name: "renamed", Language: "en", Active: true, Priority: 1, QualityScore: 0.5})

	got := reg.ActiveForLanguage("en")
	if got[0].ID != "first" || got[0].Name != "renamed" {
		t.Fatalf("expected updated first source at position 0, got %+v", got[0])
	}
}

func TestDeactivate(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Upsert(domain.Source{ID: "a", Language: "en", Active: true})

	if err := reg.Deactivate("a"); err != nil {
		t.Fatalf("deactivate returned error: %v", err)
	}
	if got := reg.ActiveForLanguage("en"); len(got) != 0 {
		t.Fatalf("expected no active sources, got %d", len(got))
	}

	src, err := reg.Get("a")
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if src.Active {
		t.Fatal("expected source to remain but be inactive")
	}
}

func TestDeactivateUnknown(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.Deactivate("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
