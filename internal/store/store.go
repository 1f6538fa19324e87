package store

import (
	"context"
	"errors"

	"loadnav/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Instances
	CreateInstance(ctx context.Context, in model.InstanceIn) (id string, err error)
	GetInstance(ctx context.Context, id string) (model.InstanceIn, error)
	ListInstances(ctx context.Context, limit int) ([]model.InstanceMeta, error)

	// Runs
	CreateRun(ctx context.Context, instanceID string) (model.Run, error)
	UpdateRun(ctx context.Context, run model.Run) error
	GetRun(ctx context.Context, id string) (model.Run, error)
	ListRuns(ctx context.Context, status string, limit int) ([]model.Run, error)
}

var ErrNotFound = errors.New("not found")
