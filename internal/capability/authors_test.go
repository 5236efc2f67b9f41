package capability

import (
	"context"
	"testing"

	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

func rosterConfig() *config.Config {
	return &config.Config{
		Authors: []config.AuthorConfig{
			{ID: "ana", DisplayName: "Ana", Expertise: []string{"seo", "marketing"}},
			{ID: "ben", DisplayName: "Ben", Expertise: []string{"kubernetes", "networking", "security"}},
		},
	}
}

func TestMatchPicksBestCoverage(t *testing.T) {
	registry := NewRosterAuthorRegistry(rosterConfig())
	item := models.SourceItem{ID: "i1", Keywords: []string{"Kubernetes", "security", "marketing"}}

	match, err := registry.Match(context.Background(), &models.Campaign{ID: "c1"}, item)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if match.AuthorID != "ben" {
		t.Errorf("AuthorID = %q, want %q", match.AuthorID, "ben")
	}
	// Ben covers 2 of 3 keywords.
	if got, want := match.HealthScore, 2.0/3.0; got != want {
		t.Errorf("HealthScore = %v, want %v", got, want)
	}
}

func TestMatchNoKeywordsFallsBackToFirstAuthor(t *testing.T) {
	registry := NewRosterAuthorRegistry(rosterConfig())

	match, err := registry.Match(context.Background(), &models.Campaign{ID: "c1"}, models.SourceItem{ID: "i1"})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if match.AuthorID != "ana" {
		t.Errorf("AuthorID = %q, want first roster entry %q", match.AuthorID, "ana")
	}
	if match.HealthScore != 0 {
		t.Errorf("HealthScore = %v, want 0", match.HealthScore)
	}
}

func TestMatchEmptyRoster(t *testing.T) {
	registry := NewRosterAuthorRegistry(&config.Config{})
	if _, err := registry.Match(context.Background(), &models.Campaign{ID: "c1"}, models.SourceItem{ID: "i1"}); err == nil {
		t.Error("Match() error = nil, want empty roster error")
	}
}

func TestCoverage(t *testing.T) {
	tests := []struct {
		name      string
		keywords  []string
		expertise []string
		want      float64
	}{
		{"full", []string{"a", "b"}, []string{"a", "b", "c"}, 1.0},
		{"half", []string{"a", "b"}, []string{"a"}, 0.5},
		{"none", []string{"a"}, []string{"b"}, 0},
		{"case insensitive", []string{"SEO"}, []string{"seo"}, 1.0},
		{"no keywords", nil, []string{"a"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coverage(tt.keywords, tt.expertise); got != tt.want {
				t.Errorf("coverage(%v, %v) = %v, want %v", tt.keywords, tt.expertise, got, tt.want)
			}
		})
	}
}
