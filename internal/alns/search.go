package alns

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

// Destroy operator names accepted in configuration.
const (
	OpRandomDestroy      = "random_destroy"
	OpRouteDestroy       = "route_destroy"
	OpDemandDestroy      = "demand_destroy"
	OpTimeDestroy        = "time_destroy"
	OpWorstDestroy       = "worst_destroy"
	OpNodePairDestroy    = "node_pair_destroy"
	OpShawDestroy        = "shaw_destroy"
	OpDistanceSimilarity = "distance_similarity"
	OpWindowSimilarity   = "window_similarity"
	OpDemandSimilarity   = "demand_similarity"
)

// Repair operator names accepted in configuration.
const (
	OpBasicGreedy  = "basic_greedy"
	OpRandomGreedy = "random_greedy"
	OpDeepGreedy   = "deep_greedy"
	Op2Regret      = "2_regret"
	Op3Regret      = "3_regret"
	Op5Regret      = "5_regret"
	OpBetaHybrid   = "beta_hybrid"
)

// DestroyOperatorNames lists every valid destroy operator.
var DestroyOperatorNames = []string{
	OpRandomDestroy, OpRouteDestroy, OpDemandDestroy, OpTimeDestroy,
	OpWorstDestroy, OpNodePairDestroy, OpShawDestroy,
	OpDistanceSimilarity, OpWindowSimilarity, OpDemandSimilarity,
}

// RepairOperatorNames lists every valid repair operator.
var RepairOperatorNames = []string{
	OpBasicGreedy, OpRandomGreedy, OpDeepGreedy,
	Op2Regret, Op3Regret, Op5Regret, OpBetaHybrid,
}

// Options are the search hyperparameters. The zero value is not usable;
// start from DefaultOptions.
type Options struct {
	MaxTime       time.Duration
	MaxIterations int // iterations without improvement before stopping

	InitTempFactor float64
	CoolingRate    float64

	WheelMemoryLength  int
	WheelParameter     float64
	RewardBest         float64
	RewardAcceptBetter float64
	RewardUnique       float64
	RewardDivers       float64
	Penalty            float64
	MinWeight          float64

	RandomNoise    float64
	TargetInf      float64
	ShakeupLog     float64
	MeanRemovalLog float64

	Seed uint64

	DestroyOperators []string
	RepairOperators  []string

	// Progress, when set, receives an event on every new best and a
	// heartbeat every progressEvery iterations.
	Progress func(ProgressEvent)
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		MaxTime:            600 * time.Second,
		MaxIterations:      10000,
		InitTempFactor:     0.01,
		CoolingRate:        0.99975,
		WheelMemoryLength:  20,
		WheelParameter:     0.1,
		RewardBest:         33,
		RewardAcceptBetter: 13,
		RewardUnique:       9,
		RewardDivers:       9,
		Penalty:            0,
		MinWeight:          1,
		RandomNoise:        0,
		TargetInf:          0.2,
		ShakeupLog:         20,
		MeanRemovalLog:     2,
		DestroyOperators:   []string{OpRandomDestroy},
		RepairOperators:    []string{OpBasicGreedy},
	}
}

// ProgressEvent is a snapshot emitted through Options.Progress.
type ProgressEvent struct {
	Iteration       int     `json:"iteration"`
	BestDrivingTime float64 `json:"bestDrivingTime"`
	RunningQuality  float64 `json:"runningQuality"`
	Temperature     float64 `json:"temperature"`
	NewBest         bool    `json:"newBest"`
}

const progressEvery = 100

// Result is what a finished search hands back.
type Result struct {
	Best           *Solution
	Iterations     int
	SolveTime      time.Duration
	Visited        int
	DestroyWeights []float64
	RepairWeights  []float64
	Snapshots      []WeightSnapshot
}

// WeightSnapshot records the wheel weights at one point of the run.
type WeightSnapshot struct {
	Iteration int       `json:"iteration"`
	Destroy   []float64 `json:"destroy"`
	Repair    []float64 `json:"repair"`
}

const snapshotEvery = 50

// Search drives the adaptive large neighborhood search: two roulette
// wheels pick one destroy and one repair operator per iteration, the
// edited running solution is scored against the simulated-annealing
// incumbent and the best feasible solution, and the wheels learn from
// the outcome.
type Search struct {
	in   *Instance
	opts Options
	rng  *Rand

	// shared mutable scalars read by the operators through opEnv
	wCapa       float64
	wFrame      float64
	meanRemoval float64

	running *Solution
	current *Solution
	best    *Solution

	destroyOps   []destroyFunc
	repairOps    []repairFunc
	destroyWheel *Wheel
	repairWheel  *Wheel

	// historical matrices, node-indexed, owned here
	potential [][]float64 // best driving time ever observed per arc
	usage     [][]int     // how often an arc appeared in a running solution

	visited map[uint64]int64 // route hash -> unix ms first seen

	infCount int
}

// NewSearch wires the operators for in. Unknown operator names are a
// configuration error.
func NewSearch(in *Instance, opts Options) (*Search, error) {
	s := &Search{
		in:          in,
		opts:        opts,
		rng:         NewRand(opts.Seed),
		wCapa:       1,
		wFrame:      1,
		meanRemoval: math.Log(float64(in.NCustomers)) / math.Log(opts.MeanRemovalLog),
		running:     NewSolution(in),
		current:     NewSolution(in),
		best:        NewSolution(in),
		visited:     map[uint64]int64{},
	}

	s.potential = make([][]float64, in.NNodes)
	s.usage = make([][]int, in.NNodes)
	for i := range s.potential {
		s.potential[i] = make([]float64, in.NNodes)
		for j := range s.potential[i] {
			s.potential[i][j] = math.MaxFloat64
		}
		s.usage[i] = make([]int, in.NNodes)
	}

	env := &opEnv{
		sol:         s.running,
		wCapa:       &s.wCapa,
		wFrame:      &s.wFrame,
		meanRemoval: &s.meanRemoval,
		noise:       opts.RandomNoise,
		rng:         s.rng,
	}

	destroyNames := opts.DestroyOperators
	if len(destroyNames) == 0 {
		log.Warn("no destroy operator configured, falling back to random_destroy")
		destroyNames = []string{OpRandomDestroy}
	}
	for _, name := range destroyNames {
		op, err := buildDestroy(env, name, s.potential)
		if err != nil {
			return nil, err
		}
		s.destroyOps = append(s.destroyOps, op)
	}

	repairNames := opts.RepairOperators
	if len(repairNames) == 0 {
		log.Warn("no repair operator configured, falling back to basic_greedy")
		repairNames = []string{OpBasicGreedy}
	}
	for _, name := range repairNames {
		op, err := buildRepair(env, name)
		if err != nil {
			return nil, err
		}
		s.repairOps = append(s.repairOps, op)
	}

	s.destroyWheel = NewWheel(len(s.destroyOps), opts.WheelParameter, len(s.destroyOps)*opts.WheelMemoryLength, opts.MinWeight)
	s.repairWheel = NewWheel(len(s.repairOps), opts.WheelParameter, len(s.repairOps)*opts.WheelMemoryLength, opts.MinWeight)
	return s, nil
}

func buildDestroy(env *opEnv, name string, potential [][]float64) (destroyFunc, error) {
	switch name {
	case OpRandomDestroy:
		return func() []int { return randomDestroy(env) }, nil
	case OpRouteDestroy:
		return func() []int { return routeDestroy(env) }, nil
	case OpDemandDestroy:
		demandRanks := ranks(env.sol.in.Demand)
		return func() []int { return demandDestroy(env, demandRanks) }, nil
	case OpTimeDestroy:
		return func() []int { return travelTimeDestroy(env) }, nil
	case OpWorstDestroy:
		return func() []int { return worstDestroy(env) }, nil
	case OpNodePairDestroy:
		return func() []int { return nodePairDestroy(env, potential) }, nil
	case OpShawDestroy:
		w := shawWeights{distance: 9, window: 3, demand: 2, vehicle: 5}
		return func() []int { return shawDestroy(env, w) }, nil
	case OpDistanceSimilarity:
		w := shawWeights{distance: 1}
		return func() []int { return shawDestroy(env, w) }, nil
	case OpWindowSimilarity:
		w := shawWeights{window: 1}
		return func() []int { return shawDestroy(env, w) }, nil
	case OpDemandSimilarity:
		w := shawWeights{demand: 1}
		return func() []int { return shawDestroy(env, w) }, nil
	}
	return nil, fmt.Errorf("alns: unknown destroy operator %q", name)
}

func buildRepair(env *opEnv, name string) (repairFunc, error) {
	switch name {
	case OpBasicGreedy:
		return func(removed []int) { basicGreedy(env, removed) }, nil
	case OpRandomGreedy:
		return func(removed []int) { randomGreedy(env, removed) }, nil
	case OpDeepGreedy:
		return func(removed []int) { deepGreedy(env, removed) }, nil
	case Op2Regret:
		return func(removed []int) { kRegret(env, 2, removed) }, nil
	case Op3Regret:
		return func(removed []int) { kRegret(env, 3, removed) }, nil
	case Op5Regret:
		return func(removed []int) { kRegret(env, 5, removed) }, nil
	case OpBetaHybrid:
		return func(removed []int) { betaHybrid(env, 3, removed) }, nil
	}
	return nil, fmt.Errorf("alns: unknown repair operator %q", name)
}

// initialize seeds running and current with a random padded-capacity
// feasible routing.
func (s *Search) initialize() error {
	routes, err := randomRoutes(s.in, s.rng)
	if err != nil {
		return err
	}
	s.running.Routes = routes
	s.running.EvaluateFull(s.wCapa, s.wFrame)
	s.current.CopyFrom(s.running)
	return nil
}

// updateHistoricMatrices folds the running solution's arcs into the
// potential and usage matrices.
func (s *Search) updateHistoricMatrices() {
	dt := s.running.DrivingTime
	for _, route := range s.running.Routes {
		if len(route) == 0 {
			continue
		}
		prev := 0
		for _, c := range route {
			node := c + 1
			if s.potential[prev][node] > dt {
				s.potential[prev][node] = dt
			}
			s.usage[prev][node]++
			prev = node
		}
		if s.potential[prev][0] > dt {
			s.potential[prev][0] = dt
		}
		s.usage[prev][0]++
	}
}

// updateErrorWeights steers the share of infeasible running solutions
// toward the target: too little infeasibility relaxes the penalties so
// the search can cut through infeasible space, too much tightens them.
func (s *Search) updateErrorWeights() {
	infRatio := float64(s.infCount) / 100

	if infRatio+0.05 < s.opts.TargetInf {
		s.wCapa *= 0.85
		s.wFrame *= 0.85
	} else if infRatio-0.05 > s.opts.TargetInf {
		s.wCapa *= 1.2
		s.wFrame *= 1.2
	}

	s.current.SetQuality(s.wCapa, s.wFrame)
	s.running.SetQuality(s.wCapa, s.wFrame)
}

func (s *Search) emit(ev ProgressEvent) {
	if s.opts.Progress != nil {
		s.opts.Progress(ev)
	}
}

// Solve runs the main loop until the wall clock or the
// no-improvement counter runs out, and returns the best feasible
// solution seen.
func (s *Search) Solve() (*Result, error) {
	if err := s.initialize(); err != nil {
		return nil, err
	}

	temperature := s.opts.InitTempFactor * s.running.Quality
	meanRemovalBase := math.Log(float64(s.in.NCustomers)) / math.Log(s.opts.MeanRemovalLog)

	iteration := 0
	var snapshots []WeightSnapshot
	iterationWI := 0  // iterations without improvement
	iterationInf := 0 // position in the current infeasibility window
	started := time.Now()

	destroyPeriod := len(s.destroyOps) * s.opts.WheelMemoryLength
	repairPeriod := len(s.repairOps) * s.opts.WheelMemoryLength

	for time.Since(started) < s.opts.MaxTime && iterationWI < s.opts.MaxIterations {
		iterStart := time.Now()

		d := s.destroyWheel.Select(s.rng)
		r := s.repairWheel.Select(s.rng)

		removed := s.destroyOps[d]()
		s.repairOps[r](removed)

		s.updateHistoricMatrices()

		reward := 0.0
		hash := s.running.Hash()
		_, seen := s.visited[hash]
		if !seen {
			reward += s.opts.RewardUnique
		}

		newBest := false
		if s.running.Quality < s.current.Quality {
			s.current.CopyFrom(s.running)
			reward += s.opts.RewardAcceptBetter
		} else {
			accept := math.Exp(-(s.running.Quality - s.current.Quality) / temperature)
			diversity := s.running.Diversity(s.usage, iteration)
			reward += diversity * accept * s.opts.RewardDivers
			reward += s.opts.Penalty

			if s.rng.Uni() < accept {
				s.current.CopyFrom(s.running)
			}
		}

		if s.running.Feasible && s.running.DrivingTime < s.best.DrivingTime {
			s.best.CopyFrom(s.running)
			reward += s.opts.RewardBest
			iterationWI = 0
			newBest = true

			if s.opts.ShakeupLog > 0 {
				s.meanRemoval = math.Ceil(meanRemovalBase)
			}
		} else {
			iterationWI++
			// shakeup: the longer nothing improves, the more customers
			// the next destroys take out
			if s.opts.ShakeupLog > 0 {
				s.meanRemoval = math.Ceil(math.Log(float64(iterationWI+1)) / math.Log(s.opts.ShakeupLog) * meanRemovalBase)
			}
		}

		if !seen {
			s.visited[hash] = time.Now().UnixMilli()
		}

		if !s.running.Feasible {
			s.infCount++
		}
		if iterationInf == 99 {
			s.updateErrorWeights()
			s.infCount = 0
			iterationInf = 0
		} else {
			iterationInf++
		}

		elapsedMs := float64(time.Since(iterStart).Milliseconds())
		if elapsedMs < 1 {
			elapsedMs = 1
		}
		s.destroyWheel.UpdateScore(reward / elapsedMs)
		s.repairWheel.UpdateScore(reward / elapsedMs)

		if iteration%destroyPeriod == 0 {
			s.destroyWheel.UpdateWeights()
		}
		if iteration%repairPeriod == 0 {
			s.repairWheel.UpdateWeights()
		}
		if iteration%snapshotEvery == 0 {
			snapshots = append(snapshots, WeightSnapshot{
				Iteration: iteration,
				Destroy:   s.destroyWheel.Weights(),
				Repair:    s.repairWheel.Weights(),
			})
		}

		temperature *= s.opts.CoolingRate
		iteration++

		if newBest || iteration%progressEvery == 0 {
			s.emit(ProgressEvent{
				Iteration:       iteration,
				BestDrivingTime: s.best.DrivingTime,
				RunningQuality:  s.running.Quality,
				Temperature:     temperature,
				NewBest:         newBest,
			})
		}

		s.running.CopyFrom(s.current)
	}

	res := &Result{
		Best:           s.best,
		Iterations:     iteration,
		SolveTime:      time.Since(started),
		Visited:        len(s.visited),
		DestroyWeights: s.destroyWheel.Weights(),
		RepairWeights:  s.repairWheel.Weights(),
		Snapshots:      snapshots,
	}

	log.WithFields(log.Fields{
		"iterations":  res.Iterations,
		"drivingTime": s.best.DrivingTime,
		"feasible":    s.best.Feasible,
		"solveTime":   res.SolveTime,
	}).Info("search finished")

	return res, nil
}
