package runledger_test

import (
	"context"
	"errors"
	"testing"

	"facetflow/internal/driver"
	"facetflow/internal/runledger"
	"facetflow/internal/testsupport"
)

func mustOpen(t *testing.T) *runledger.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := runledger.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndFetch(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	run, err := store.Record(ctx, driver.Run{
		Direction:     "facet_patch_1",
		Operation:     "facetselfcal",
		Action:        "merge_skymodels",
		ParsetFile:    "/work/models/facetselfcal/merge_skymodels/merge_skymodel.parset",
		OutputDatamap: "/work/datamaps/merge_skymodel_output_facet_patch_1.datamap",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected run ID to be assigned")
	}
	if run.Status != runledger.StatusPrepared {
		t.Fatalf("unexpected initial status %s", run.Status)
	}

	fetched, err := store.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Action != "merge_skymodels" || fetched.Direction != "facet_patch_1" {
		t.Fatalf("unexpected fetched run %+v", fetched)
	}
}

func TestRecordRequiresDirection(t *testing.T) {
	store := mustOpen(t)
	if _, err := store.Record(context.Background(), driver.Run{Action: "fft"}); err == nil {
		t.Fatal("expected error when direction missing")
	}
}

func TestSetStatusTransitions(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	run, err := store.Record(ctx, driver.Run{Direction: "facet_patch_1", Operation: "facetsub", Action: "fft", ParsetFile: "/p"})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetStatus(ctx, run.ID, runledger.StatusRunning, ""); err != nil {
		t.Fatalf("SetStatus running failed: %v", err)
	}
	if err := store.SetStatus(ctx, run.ID, runledger.StatusFailed, "tool exited 1"); err != nil {
		t.Fatalf("SetStatus failed failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Status != runledger.StatusFailed || fetched.ErrorMessage != "tool exited 1" {
		t.Fatalf("unexpected run after transitions: %+v", fetched)
	}
	if !fetched.UpdatedAt.After(fetched.CreatedAt) && !fetched.UpdatedAt.Equal(fetched.CreatedAt) {
		t.Fatal("updated_at not maintained")
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()
	run, err := store.Record(ctx, driver.Run{Direction: "d", Operation: "op", Action: "a", ParsetFile: "/p"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetStatus(ctx, run.ID, runledger.Status("exploded"), ""); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestSetStatusMissingRun(t *testing.T) {
	store := mustOpen(t)
	err := store.SetStatus(context.Background(), "no-such-run", runledger.StatusRunning, "")
	if !errors.Is(err, runledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListByDirectionScopes(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	for _, d := range []string{"facet_patch_1", "facet_patch_1", "facet_patch_2"} {
		if _, err := store.Record(ctx, driver.Run{Direction: d, Operation: "facetselfcal", Action: "fft", ParsetFile: "/p"}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.ListByDirection(ctx, "facet_patch_1")
	if err != nil {
		t.Fatalf("ListByDirection failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, run := range runs {
		if run.Direction != "facet_patch_1" {
			t.Fatalf("foreign direction in listing: %+v", run)
		}
	}
}
