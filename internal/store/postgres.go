package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"loadnav/internal/model"
)

// Postgres persists instances and runs as JSONB documents; the solver
// state itself never touches the database.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	p := &Postgres{pool: pool}
	if err := p.migrate(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS instances (
    id          text PRIMARY KEY,
    name        text NOT NULL DEFAULT '',
    n_vehicles  int  NOT NULL,
    n_customers int  NOT NULL,
    payload     jsonb NOT NULL,
    created_at  timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS runs (
    id          text PRIMARY KEY,
    instance_id text REFERENCES instances(id),
    status      text NOT NULL,
    error       text NOT NULL DEFAULT '',
    result      jsonb,
    created_at  timestamptz NOT NULL DEFAULT now(),
    finished_at timestamptz
);
CREATE INDEX IF NOT EXISTS runs_status_idx ON runs(status);
`)
	return err
}

func (p *Postgres) CreateInstance(ctx context.Context, in model.InstanceIn) (string, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	id := "inst_" + uuid.NewString()
	_, err = p.pool.Exec(ctx,
		`INSERT INTO instances (id, name, n_vehicles, n_customers, payload) VALUES ($1,$2,$3,$4,$5)`,
		id, in.Name, in.NVehicles, len(in.Demand), payload)
	return id, err
}

func (p *Postgres) GetInstance(ctx context.Context, id string) (model.InstanceIn, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx, `SELECT payload FROM instances WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.InstanceIn{}, ErrNotFound
	}
	if err != nil {
		return model.InstanceIn{}, err
	}
	var in model.InstanceIn
	err = json.Unmarshal(payload, &in)
	return in, err
}

func (p *Postgres) ListInstances(ctx context.Context, limit int) ([]model.InstanceMeta, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, n_vehicles, n_customers, created_at FROM instances ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.InstanceMeta
	for rows.Next() {
		var meta model.InstanceMeta
		var created time.Time
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.NVehicles, &meta.NCustomers, &created); err != nil {
			return nil, err
		}
		meta.CreatedAt = created.UTC().Format(time.RFC3339)
		out = append(out, meta)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateRun(ctx context.Context, instanceID string) (model.Run, error) {
	run := model.Run{
		ID:         "run_" + uuid.NewString(),
		InstanceID: instanceID,
		Status:     model.RunQueued,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	var instID any
	if instanceID != "" {
		instID = instanceID
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO runs (id, instance_id, status) VALUES ($1,$2,$3)`,
		run.ID, instID, run.Status)
	return run, err
}

func (p *Postgres) UpdateRun(ctx context.Context, run model.Run) error {
	var result any
	if run.Result != nil {
		payload, err := json.Marshal(run.Result)
		if err != nil {
			return err
		}
		result = payload
	}
	var finished any
	if run.FinishedAt != "" {
		finished = run.FinishedAt
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE runs SET status = $2, error = $3, result = $4, finished_at = $5 WHERE id = $1`,
		run.ID, run.Status, run.Error, result, finished)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (model.Run, error) {
	var (
		run      model.Run
		instID   *string
		result   []byte
		created  time.Time
		finished *time.Time
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, instance_id, status, error, result, created_at, finished_at FROM runs WHERE id = $1`, id).
		Scan(&run.ID, &instID, &run.Status, &run.Error, &result, &created, &finished)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Run{}, ErrNotFound
	}
	if err != nil {
		return model.Run{}, err
	}
	if instID != nil {
		run.InstanceID = *instID
	}
	run.CreatedAt = created.UTC().Format(time.RFC3339)
	if finished != nil {
		run.FinishedAt = finished.UTC().Format(time.RFC3339)
	}
	if len(result) > 0 {
		run.Result = &model.SolutionOut{}
		if err := json.Unmarshal(result, run.Result); err != nil {
			return model.Run{}, err
		}
	}
	return run, nil
}

func (p *Postgres) ListRuns(ctx context.Context, status string, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, instance_id, status, error, created_at, finished_at FROM runs
		 WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		var (
			run      model.Run
			instID   *string
			created  time.Time
			finished *time.Time
		)
		if err := rows.Scan(&run.ID, &instID, &run.Status, &run.Error, &created, &finished); err != nil {
			return nil, err
		}
		if instID != nil {
			run.InstanceID = *instID
		}
		run.CreatedAt = created.UTC().Format(time.RFC3339)
		if finished != nil {
			run.FinishedAt = finished.UTC().Format(time.RFC3339)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
