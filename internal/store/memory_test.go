package store

import (
	"context"
	"errors"
	"testing"

	"loadnav/internal/model"
)

func TestMemoryInstanceRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	in := model.InstanceIn{Name: "tiny", NVehicles: 2, Demand: []float64{1, 2, 3}}
	id, err := m.CreateInstance(ctx, in)
	if err != nil || id == "" {
		t.Fatalf("create: id=%q err=%v", id, err)
	}

	got, err := m.GetInstance(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "tiny" || len(got.Demand) != 3 {
		t.Fatalf("got %+v", got)
	}

	if _, err := m.GetInstance(ctx, "inst_nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	metas, err := m.ListInstances(ctx, 10)
	if err != nil || len(metas) != 1 {
		t.Fatalf("list: %v %v", metas, err)
	}
	if metas[0].NCustomers != 3 {
		t.Fatalf("nCustomers: got %d", metas[0].NCustomers)
	}
}

func TestMemoryRunLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	run, err := m.CreateRun(ctx, "inst_1")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if run.Status != model.RunQueued {
		t.Fatalf("status: got %s", run.Status)
	}

	run.Status = model.RunDone
	run.Result = &model.SolutionOut{DrivingTime: 42, Feasible: true}
	if err := m.UpdateRun(ctx, run); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := m.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Result == nil || got.Result.DrivingTime != 42 {
		t.Fatalf("result not persisted: %+v", got)
	}

	if err := m.UpdateRun(ctx, model.Run{ID: "run_nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	done, err := m.ListRuns(ctx, model.RunDone, 10)
	if err != nil || len(done) != 1 {
		t.Fatalf("list done: %v %v", done, err)
	}
	queued, err := m.ListRuns(ctx, model.RunQueued, 10)
	if err != nil || len(queued) != 0 {
		t.Fatalf("list queued: %v %v", queued, err)
	}
}
