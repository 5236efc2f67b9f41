package capability

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/halcyon-labs/pagesmith/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishedIndexRecordAndLookup(t *testing.T) {
	index := NewPublishedIndex(t.TempDir(), testLogger())
	ctx := context.Background()
	campaign := &models.Campaign{ID: "c1"}
	item := models.SourceItem{ID: "i1", Topic: "How to Choose a Widget"}

	dup, err := index.IsDuplicate(ctx, campaign, item)
	if err != nil {
		t.Fatalf("IsDuplicate() error = %v", err)
	}
	if dup {
		t.Error("IsDuplicate() = true on empty index")
	}

	publish := &models.PublishResult{PostID: 42, URL: "https://blog.example.com/how-to-choose-a-widget"}
	if err := index.Record(ctx, campaign, item, publish); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	dup, err = index.IsDuplicate(ctx, campaign, item)
	if err != nil {
		t.Fatalf("IsDuplicate() error = %v", err)
	}
	if !dup {
		t.Error("IsDuplicate() = false after Record()")
	}

	// Same slug under a different campaign is not a duplicate.
	dup, err = index.IsDuplicate(ctx, &models.Campaign{ID: "c2"}, item)
	if err != nil {
		t.Fatalf("IsDuplicate() error = %v", err)
	}
	if dup {
		t.Error("IsDuplicate() = true for a different campaign")
	}

	// Case and punctuation variants slugify to the same topic.
	variant := models.SourceItem{ID: "i2", Topic: "how to choose a widget!"}
	dup, err = index.IsDuplicate(ctx, campaign, variant)
	if err != nil {
		t.Fatalf("IsDuplicate() error = %v", err)
	}
	if !dup {
		t.Error("IsDuplicate() = false for slug-equivalent topic")
	}
}

func TestPublishedIndexPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	campaign := &models.Campaign{ID: "c1"}
	item := models.SourceItem{ID: "i1", Topic: "Persistent Topic"}

	first := NewPublishedIndex(dir, testLogger())
	if err := first.Record(ctx, campaign, item, nil); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	second := NewPublishedIndex(dir, testLogger())
	dup, err := second.IsDuplicate(ctx, campaign, item)
	if err != nil {
		t.Fatalf("IsDuplicate() error = %v", err)
	}
	if !dup {
		t.Error("recorded entry not visible to a fresh index instance")
	}
}
