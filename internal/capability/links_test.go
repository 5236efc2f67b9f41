package capability

import (
	"context"
	"strings"
	"testing"

	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

func linkConfig() *config.Config {
	return &config.Config{
		Links: []config.LinkTarget{
			{URL: "https://blog.example.com/widgets", Title: "Widgets", Keywords: []string{"widget"}},
			{URL: "https://blog.example.com/gadgets", Title: "Gadgets", Keywords: []string{"gadget"}},
			{URL: "https://blog.example.com/gizmos", Title: "Gizmos", Keywords: []string{"gizmo"}},
			{URL: "https://blog.example.com/doohickeys", Title: "Doohickeys", Keywords: []string{"doohickey"}},
		},
	}
}

func TestPlaceLinksSelectsMatchingTargets(t *testing.T) {
	indexer := NewKeywordLinkIndexer(linkConfig(), testLogger())
	content := &models.ContentResult{Body: "Every Widget pairs well with a gadget."}

	result, err := indexer.PlaceLinks(context.Background(), &models.Campaign{ID: "c1"}, content)
	if err != nil {
		t.Fatalf("PlaceLinks() error = %v", err)
	}
	if len(result.Links) != 2 {
		t.Fatalf("len(Links) = %d, want 2", len(result.Links))
	}
	if result.Links[0].Anchor != "Widget" {
		t.Errorf("Anchor = %q, want original casing %q", result.Links[0].Anchor, "Widget")
	}
	if result.Links[0].Target != "https://blog.example.com/widgets" {
		t.Errorf("Target = %q, want widgets page", result.Links[0].Target)
	}

	// The body must not be mutated; links apply at publish time.
	if content.Body != "Every Widget pairs well with a gadget." {
		t.Error("PlaceLinks() mutated the content body")
	}
}

func TestPlaceLinksRespectsCap(t *testing.T) {
	indexer := NewKeywordLinkIndexer(linkConfig(), testLogger())
	content := &models.ContentResult{Body: "widget gadget gizmo doohickey"}

	result, err := indexer.PlaceLinks(context.Background(), &models.Campaign{ID: "c1"}, content)
	if err != nil {
		t.Fatalf("PlaceLinks() error = %v", err)
	}
	if len(result.Links) != maxInternalLinks {
		t.Errorf("len(Links) = %d, want cap %d", len(result.Links), maxInternalLinks)
	}
}

func TestPlaceLinksNoContent(t *testing.T) {
	indexer := NewKeywordLinkIndexer(linkConfig(), testLogger())
	if _, err := indexer.PlaceLinks(context.Background(), &models.Campaign{ID: "c1"}, nil); err == nil {
		t.Error("PlaceLinks(nil content) error = nil, want error")
	}
}

func TestApplyLinks(t *testing.T) {
	body := "Every widget deserves care. A widget lasts years."
	links := &models.LinkResult{Links: []models.InternalLink{
		{Anchor: "widget", Target: "https://blog.example.com/widgets"},
	}}

	got := ApplyLinks(body, links)
	want := "Every [widget](https://blog.example.com/widgets) deserves care. A widget lasts years."
	if got != want {
		t.Errorf("ApplyLinks() = %q, want %q (first occurrence only)", got, want)
	}

	if got := ApplyLinks(body, nil); got != body {
		t.Errorf("ApplyLinks(nil) = %q, want unchanged body", got)
	}

	// An anchor no longer present in the body is skipped.
	missing := &models.LinkResult{Links: []models.InternalLink{{Anchor: "absent", Target: "https://x"}}}
	if got := ApplyLinks(body, missing); got != body {
		t.Errorf("ApplyLinks() with missing anchor changed body to %q", got)
	}

	if strings.Count(ApplyLinks(body, links), "](") != 1 {
		t.Error("ApplyLinks() placed more than one link for a single anchor")
	}
}
