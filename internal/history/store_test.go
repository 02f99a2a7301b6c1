package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stackpress/internal/history"
	"stackpress/internal/pipeline"
)

func openStore(t *testing.T) (*history.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "history.db")
	store, err := history.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestRecordAndList(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	older := pipeline.Report{
		RunID:    "run-1",
		Dir:      "/data/a",
		Started:  started,
		Finished: started.Add(time.Second),
	}
	newer := pipeline.Report{
		RunID:    "run-2",
		Dir:      "/data/b",
		Started:  started.Add(time.Hour),
		Finished: started.Add(time.Hour + 2*time.Second),
		Canceled: true,
		Outcomes: []pipeline.Outcome{
			{Base: "img1", Path: "/data/b/img1.tif", Pages: 3, Duration: 1500 * time.Millisecond},
			{Base: "img2", Path: "/data/b/img2.tif", Pages: 2, FailedStep: pipeline.StepCompress, Error: "exit status 1", Err: errors.New("exit status 1")},
		},
	}
	for _, r := range []pipeline.Report{older, newer} {
		if err := store.Record(ctx, r); err != nil {
			t.Fatalf("Record %s: %v", r.RunID, err)
		}
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Fatalf("unexpected run order: %+v", runs)
	}
	if runs[0].Assets != 2 || runs[0].Failed != 1 || !runs[0].Canceled {
		t.Fatalf("unexpected run summary: %+v", runs[0])
	}
	if !runs[0].StartedAt.Equal(newer.Started) {
		t.Fatalf("started_at = %v, want %v", runs[0].StartedAt, newer.Started)
	}

	assets, err := store.Assets(ctx, "run-2")
	if err != nil {
		t.Fatalf("Assets: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	if assets[0].Base != "img1" || assets[0].FailedStep != "" || assets[0].Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected first asset: %+v", assets[0])
	}
	if assets[1].FailedStep != "compress" || assets[1].Error != "exit status 1" {
		t.Fatalf("unexpected second asset: %+v", assets[1])
	}

	limited, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestRecordDuplicateRunFails(t *testing.T) {
	store, _ := openStore(t)
	report := pipeline.Report{RunID: "dup", Dir: "/x", Started: time.Now(), Finished: time.Now()}
	if err := store.Record(context.Background(), report); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(context.Background(), report); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
}

func TestReopenKeepsData(t *testing.T) {
	store, path := openStore(t)
	if err := store.Record(context.Background(), pipeline.Report{RunID: "keep", Dir: "/x", Started: time.Now(), Finished: time.Now()}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = store.Close()

	reopened, err := history.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.Recent(context.Background(), 5)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected persisted run, got %v (err %v)", runs, err)
	}
}
