package checkpoint

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/halcyon-labs/pagesmith/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	store := NewStore(repo, ttl, true, testLogger())
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("store.Close() error = %v", err)
		}
	})
	return store, dir
}

func sampleCheckpoint() *models.Checkpoint {
	return &models.Checkpoint{
		RunID:           "run-1",
		CampaignID:      "camp",
		ItemID:          "item",
		CompletedStages: []string{"dedup", "content"},
		StageResults: map[string]models.StageResult{
			"dedup": {StageID: "dedup", Success: true},
		},
		Context: models.ContextSlice{
			Content: &models.ContentResult{Title: "Test", Slug: "test", Body: "body"},
		},
	}
}

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	if err := store.Save(sampleCheckpoint()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cp, err := store.Load("camp", "item")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cp == nil {
		t.Fatal("Load() = nil, want checkpoint")
	}
	if cp.RunID != "run-1" {
		t.Errorf("RunID = %q, want %q", cp.RunID, "run-1")
	}
	if !cp.Completed("dedup") || !cp.Completed("content") {
		t.Errorf("CompletedStages = %v, want dedup and content", cp.CompletedStages)
	}
	if cp.Completed("publish") {
		t.Error("Completed(publish) = true, want false")
	}
	if cp.Context.Content == nil || cp.Context.Content.Slug != "test" {
		t.Errorf("Context.Content = %+v, want restored content", cp.Context.Content)
	}
	if cp.UpdatedAt.IsZero() || cp.CreatedAt.IsZero() {
		t.Error("timestamps not stamped on save")
	}
}

func TestStoreLoadAbsent(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	cp, err := store.Load("camp", "missing")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cp != nil {
		t.Errorf("Load() = %+v, want nil for absent key", cp)
	}
}

func TestStoreExpiredCheckpointDeleted(t *testing.T) {
	store, dir := newTestStore(t, time.Minute)

	cp := sampleCheckpoint()
	if err := store.Save(cp); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Age the record past the TTL by rewriting it with an old timestamp.
	cp.UpdatedAt = time.Now().Add(-2 * time.Minute)
	data, err := json.Marshal(cp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	path := filepath.Join(dir, "camp--item.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := store.Load("camp", "item")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() = %+v, want nil for expired checkpoint", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expired checkpoint file not deleted")
	}
}

func TestStoreCorruptCheckpointDeleted(t *testing.T) {
	store, dir := newTestStore(t, time.Hour)

	path := filepath.Join(dir, "camp--item.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := store.Load("camp", "item")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() = %+v, want nil for corrupt checkpoint", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt checkpoint file not deleted")
	}
}

func TestStoreClearAndHas(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	if store.Has("camp", "item") {
		t.Error("Has() = true before save")
	}
	if err := store.Save(sampleCheckpoint()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.Has("camp", "item") {
		t.Error("Has() = false after save")
	}
	if err := store.Clear("camp", "item"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if store.Has("camp", "item") {
		t.Error("Has() = true after clear")
	}
	// Clearing an absent key is not an error.
	if err := store.Clear("camp", "item"); err != nil {
		t.Errorf("Clear() on absent key error = %v", err)
	}
}

func TestStoreDisabled(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	store := NewStore(repo, time.Hour, false, testLogger())
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Save(sampleCheckpoint()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	cp, err := store.Load("camp", "item")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cp != nil {
		t.Error("disabled store must not persist checkpoints")
	}
}

func TestStoreList(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	first := sampleCheckpoint()
	second := sampleCheckpoint()
	second.ItemID = "other"
	if err := store.Save(first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	infos, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(infos))
	}
	seen := make(map[string]bool)
	for _, info := range infos {
		seen[info.ItemID] = true
		if info.CampaignID != "camp" {
			t.Errorf("CampaignID = %q, want %q", info.CampaignID, "camp")
		}
	}
	if !seen["item"] || !seen["other"] {
		t.Errorf("List() items = %v, want item and other", seen)
	}
}

func TestFileRepositoryLockIsExclusive(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	defer repo.Close()

	if _, err := NewFileRepository(dir); err == nil {
		t.Error("second NewFileRepository() on same dir succeeded, want lock error")
	}
}

func TestKeyString(t *testing.T) {
	k := Key{CampaignID: "camp", ItemID: "item"}
	if got := k.String(); got != "camp--item" {
		t.Errorf("Key.String() = %q, want %q", got, "camp--item")
	}
}
