package model

// Core domain types shared by the API, the stores and the CLIs.

// InstanceIn is the wire form of a problem instance. Either Elevation
// (load-dependent form, the time tensor is precomputed by the solver)
// or TimeTensor (degenerate time-window form) must be present.
type InstanceIn struct {
	Name            string        `json:"name,omitempty"`
	NVehicles       int           `json:"nVehicles"`
	Demand          []float64     `json:"demand"`
	ServiceTimes    []float64     `json:"serviceTimes"`
	StartWindow     []float64     `json:"startWindow"`
	EndWindow       []float64     `json:"endWindow"`
	Distance        [][]float64   `json:"distance"`
	Elevation       [][]float64   `json:"elevation,omitempty"`
	TimeTensor      [][][]float64 `json:"timeTensor,omitempty"`
	VehicleWeight   float64       `json:"vehicleWeight,omitempty"`
	VehicleCapacity float64       `json:"vehicleCapacity,omitempty"`
	LoadBucketSize  float64       `json:"loadBucketSize,omitempty"`
	NLoadBuckets    int           `json:"nLoadBuckets,omitempty"`
}

// SolveRequest submits a run. Exactly one of InstanceID / Instance must
// be set. Zero-valued hyperparameters fall back to the server defaults.
type SolveRequest struct {
	InstanceID string      `json:"instanceId,omitempty"`
	Instance   *InstanceIn `json:"instance,omitempty"`

	DestroyOperators []string `json:"destroyOperators,omitempty"`
	RepairOperators  []string `json:"repairOperators,omitempty"`

	MaxTimeSec         int     `json:"maxTimeSec,omitempty"`
	MaxIterations      int     `json:"maxIterations,omitempty"`
	InitTempFactor     float64 `json:"initTempFactor,omitempty"`
	CoolingRate        float64 `json:"coolingRate,omitempty"`
	WheelMemoryLength  int     `json:"wheelMemoryLength,omitempty"`
	WheelParameter     float64 `json:"wheelParameter,omitempty"`
	RewardBest         float64 `json:"rewardBest,omitempty"`
	RewardAcceptBetter float64 `json:"rewardAcceptBetter,omitempty"`
	RewardUnique       float64 `json:"rewardUnique,omitempty"`
	RewardDivers       float64 `json:"rewardDivers,omitempty"`
	Penalty            float64 `json:"penalty,omitempty"`
	MinWeight          float64 `json:"minWeight,omitempty"`
	RandomNoise        float64 `json:"randomNoise,omitempty"`
	TargetInf          float64 `json:"targetInf,omitempty"`
	ShakeupLog         float64 `json:"shakeupLog,omitempty"`
	MeanRemovalLog     float64 `json:"meanRemovalLog,omitempty"`
	Seed               uint64  `json:"seed,omitempty"`
}

// RouteOut is one vehicle route with its KPIs.
type RouteOut struct {
	Vehicle     int     `json:"vehicle"`
	Customers   []int   `json:"customers"`
	StartTime   float64 `json:"startTime"`
	DrivingTime float64 `json:"drivingTime"`
	CapaError   float64 `json:"capaError"`
	FrameError  float64 `json:"frameError"`
}

// CustomerVisit is the per-customer schedule of the final solution.
type CustomerVisit struct {
	Customer  int     `json:"customer"`
	Route     int     `json:"route"`
	Arrival   float64 `json:"arrival"`
	Departure float64 `json:"departure"`
	Load      float64 `json:"load"`
}

// WeightSnapshot mirrors alns.WeightSnapshot on the wire.
type WeightSnapshot struct {
	Iteration int       `json:"iteration"`
	Destroy   []float64 `json:"destroy"`
	Repair    []float64 `json:"repair"`
}

// SolutionOut is the result payload of a finished run.
type SolutionOut struct {
	Routes      []RouteOut      `json:"routes"`
	Visits      []CustomerVisit `json:"visits"`
	DrivingTime float64         `json:"drivingTime"`
	CapaError   float64         `json:"capaError"`
	FrameError  float64         `json:"frameError"`
	Feasible    bool            `json:"feasible"`
	Iterations  int             `json:"iterations"`
	SolveTimeMs int64           `json:"solveTimeMs"`
	Visited     int             `json:"visited"`

	DestroyWeights []float64        `json:"destroyWeights,omitempty"`
	RepairWeights  []float64        `json:"repairWeights,omitempty"`
	Snapshots      []WeightSnapshot `json:"snapshots,omitempty"`
}

// Run states.
const (
	RunQueued  = "queued"
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// Run tracks one solve job.
type Run struct {
	ID         string       `json:"id"`
	InstanceID string       `json:"instanceId,omitempty"`
	Status     string       `json:"status"`
	CreatedAt  string       `json:"createdAt"`
	FinishedAt string       `json:"finishedAt,omitempty"`
	Error      string       `json:"error,omitempty"`
	Result     *SolutionOut `json:"result,omitempty"`
}

// InstanceMeta is the listing form of a stored instance.
type InstanceMeta struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	NVehicles  int    `json:"nVehicles"`
	NCustomers int    `json:"nCustomers"`
	CreatedAt  string `json:"createdAt"`
}
