package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"loadnav/internal/alns"
	"loadnav/internal/config"
	"loadnav/internal/ingest"
	"loadnav/internal/metrics"
	"loadnav/internal/model"
	"loadnav/internal/store"
)

// InstancesHandler serves POST /v1/instances and GET /v1/instances.
func (s *Server) InstancesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in model.InstanceIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error(), r.URL.Path)
			return
		}
		// reject unbuildable instances up front
		if _, err := ingest.BuildInstance(in); err != nil {
			writeProblem(w, http.StatusUnprocessableEntity, "Invalid instance", err.Error(), r.URL.Path)
			return
		}
		id, err := s.Store.CreateInstance(r.Context(), in)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Store failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := s.Store.ListInstances(r.Context(), limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Store failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "Method not allowed", "", r.URL.Path)
	}
}

// SolveHandler serves POST /v1/solve: validates the request, registers a
// run and solves it on a background goroutine, streaming progress
// through the broker.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "Method not allowed", "", r.URL.Path)
		return
	}
	if !s.limiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Rate limited", "solve submissions exceed the configured rate", r.URL.Path)
		return
	}

	var req model.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error(), r.URL.Path)
		return
	}

	var in model.InstanceIn
	switch {
	case req.Instance != nil && req.InstanceID != "":
		writeProblem(w, http.StatusBadRequest, "Invalid request", "instance and instanceId are mutually exclusive", r.URL.Path)
		return
	case req.Instance != nil:
		in = *req.Instance
	case req.InstanceID != "":
		var err error
		in, err = s.Store.GetInstance(r.Context(), req.InstanceID)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Instance not found", req.InstanceID, r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Store failed", err.Error(), r.URL.Path)
			return
		}
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid request", "one of instance or instanceId is required", r.URL.Path)
		return
	}

	inst, err := ingest.BuildInstance(in)
	if err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid instance", err.Error(), r.URL.Path)
		return
	}
	opts := SolveOptions(s.Cfg.Solver, req)

	run, err := s.Store.CreateRun(r.Context(), req.InstanceID)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Store failed", err.Error(), r.URL.Path)
		return
	}

	opts.Progress = func(ev alns.ProgressEvent) {
		typ := "progress"
		if ev.NewBest {
			typ = "best"
		}
		evCopy := ev
		s.Broker.Publish(run.ID, RunEvent{RunID: run.ID, Type: typ, Progress: &evCopy})
	}

	search, err := alns.NewSearch(inst, opts)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solver configuration", err.Error(), r.URL.Path)
		return
	}

	go s.runSolve(run, search)

	writeJSON(w, http.StatusAccepted, run)
}

// runSolve executes one run to completion and records the outcome.
func (s *Server) runSolve(run model.Run, search *alns.Search) {
	ctx := context.Background()

	run.Status = model.RunRunning
	if err := s.Store.UpdateRun(ctx, run); err != nil {
		log.WithError(err).WithField("run", run.ID).Error("mark running failed")
	}

	res, err := search.Solve()
	run.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		run.Status = model.RunFailed
		run.Error = err.Error()
		metrics.SolveRuns.WithLabelValues(model.RunFailed).Inc()
		s.Broker.Publish(run.ID, RunEvent{RunID: run.ID, Type: "failed", Error: run.Error})
	} else {
		run.Status = model.RunDone
		run.Result = model.FromResult(res)
		metrics.SolveRuns.WithLabelValues(model.RunDone).Inc()
		metrics.SolveDuration.Observe(res.SolveTime.Seconds())
		metrics.SolveIterations.Observe(float64(res.Iterations))
		metrics.BestDrivingTime.Set(res.Best.DrivingTime)
		s.Broker.Publish(run.ID, RunEvent{RunID: run.ID, Type: "done"})
	}

	if err := s.Store.UpdateRun(ctx, run); err != nil {
		log.WithError(err).WithField("run", run.ID).Error("record result failed")
	}
}

// SolveOptions merges a request over the configured defaults.
func SolveOptions(def config.Solver, req model.SolveRequest) alns.Options {
	opts := alns.DefaultOptions()

	opts.MaxTime = time.Duration(def.MaxTimeSec) * time.Second
	opts.MaxIterations = def.MaxIterations
	opts.InitTempFactor = def.InitTempFactor
	opts.CoolingRate = def.CoolingRate
	opts.WheelMemoryLength = def.WheelMemoryLength
	opts.WheelParameter = def.WheelParameter
	opts.RewardBest = def.RewardBest
	opts.RewardAcceptBetter = def.RewardAcceptBetter
	opts.RewardUnique = def.RewardUnique
	opts.RewardDivers = def.RewardDivers
	opts.Penalty = def.Penalty
	opts.MinWeight = def.MinWeight
	opts.RandomNoise = def.RandomNoise
	opts.TargetInf = def.TargetInf
	opts.ShakeupLog = def.ShakeupLog
	opts.MeanRemovalLog = def.MeanRemovalLog
	if len(def.DestroyOperators) > 0 {
		opts.DestroyOperators = def.DestroyOperators
	}
	if len(def.RepairOperators) > 0 {
		opts.RepairOperators = def.RepairOperators
	}

	if req.MaxTimeSec > 0 {
		opts.MaxTime = time.Duration(req.MaxTimeSec) * time.Second
	}
	if req.MaxIterations > 0 {
		opts.MaxIterations = req.MaxIterations
	}
	if req.InitTempFactor > 0 {
		opts.InitTempFactor = req.InitTempFactor
	}
	if req.CoolingRate > 0 {
		opts.CoolingRate = req.CoolingRate
	}
	if req.WheelMemoryLength > 0 {
		opts.WheelMemoryLength = req.WheelMemoryLength
	}
	if req.WheelParameter > 0 {
		opts.WheelParameter = req.WheelParameter
	}
	if req.RewardBest > 0 {
		opts.RewardBest = req.RewardBest
	}
	if req.RewardAcceptBetter > 0 {
		opts.RewardAcceptBetter = req.RewardAcceptBetter
	}
	if req.RewardUnique > 0 {
		opts.RewardUnique = req.RewardUnique
	}
	if req.RewardDivers > 0 {
		opts.RewardDivers = req.RewardDivers
	}
	if req.Penalty != 0 {
		opts.Penalty = req.Penalty
	}
	if req.MinWeight > 0 {
		opts.MinWeight = req.MinWeight
	}
	if req.RandomNoise > 0 {
		opts.RandomNoise = req.RandomNoise
	}
	if req.TargetInf > 0 {
		opts.TargetInf = req.TargetInf
	}
	if req.ShakeupLog > 0 {
		opts.ShakeupLog = req.ShakeupLog
	}
	if req.MeanRemovalLog > 0 {
		opts.MeanRemovalLog = req.MeanRemovalLog
	}
	if len(req.DestroyOperators) > 0 {
		opts.DestroyOperators = req.DestroyOperators
	}
	if len(req.RepairOperators) > 0 {
		opts.RepairOperators = req.RepairOperators
	}
	opts.Seed = req.Seed
	return opts
}

// RunsHandler serves GET /v1/runs and the per-run subpaths:
// /v1/runs/{id} and /v1/runs/{id}/events/stream.
func (s *Server) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "Method not allowed", "", r.URL.Path)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs")
	rest = strings.TrimPrefix(rest, "/")
	switch {
	case rest == "":
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := s.Store.ListRuns(r.Context(), r.URL.Query().Get("status"), limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Store failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case strings.HasSuffix(rest, "/events/stream"):
		s.streamRunEvents(w, r, strings.TrimSuffix(rest, "/events/stream"))
	default:
		run, err := s.Store.GetRun(r.Context(), rest)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Run not found", rest, r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Store failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

// streamRunEvents is the SSE progress feed of one run.
func (s *Server) streamRunEvents(w http.ResponseWriter, r *http.Request, runID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	if _, err := s.Store.GetRun(r.Context(), runID); err != nil {
		writeProblem(w, http.StatusNotFound, "Run not found", runID, r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ch := s.Broker.Subscribe(runID)
	defer s.Broker.Unsubscribe(runID, ch)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
			if evt.Type == "done" || evt.Type == "failed" {
				return
			}
		}
	}
}

// OperatorsHandler lists the valid operator names so clients can build
// configurations without guessing.
func (s *Server) OperatorsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"destroy": alns.DestroyOperatorNames,
		"repair":  alns.RepairOperatorNames,
	})
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports readiness.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
