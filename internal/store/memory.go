package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"loadnav/internal/model"
)

// Memory is the default store: everything lives in process, suitable
// for tests and single-node deployments without a database.
type Memory struct {
	mu        sync.Mutex
	instances map[string]model.InstanceIn
	meta      map[string]model.InstanceMeta
	runs      map[string]model.Run
}

func NewMemory() *Memory {
	return &Memory{
		instances: map[string]model.InstanceIn{},
		meta:      map[string]model.InstanceMeta{},
		runs:      map[string]model.Run{},
	}
}

func (m *Memory) CreateInstance(_ context.Context, in model.InstanceIn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "inst_" + uuid.NewString()
	m.instances[id] = in
	m.meta[id] = model.InstanceMeta{
		ID:         id,
		Name:       in.Name,
		NVehicles:  in.NVehicles,
		NCustomers: len(in.Demand),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	return id, nil
}

func (m *Memory) GetInstance(_ context.Context, id string) (model.InstanceIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.instances[id]
	if !ok {
		return model.InstanceIn{}, ErrNotFound
	}
	return in, nil
}

func (m *Memory) ListInstances(_ context.Context, limit int) ([]model.InstanceMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.InstanceMeta, 0, len(m.meta))
	for _, meta := range m.meta {
		out = append(out, meta)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt > out[b].CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CreateRun(_ context.Context, instanceID string) (model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := model.Run{
		ID:         "run_" + uuid.NewString(),
		InstanceID: instanceID,
		Status:     model.RunQueued,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	m.runs[run.ID] = run
	return run, nil
}

func (m *Memory) UpdateRun(_ context.Context, run model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return ErrNotFound
	}
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return model.Run{}, ErrNotFound
	}
	return run, nil
}

func (m *Memory) ListRuns(_ context.Context, status string, limit int) ([]model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Run, 0, len(m.runs))
	for _, run := range m.runs {
		if status != "" && run.Status != status {
			continue
		}
		out = append(out, run)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt > out[b].CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
