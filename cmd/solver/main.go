package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	log "github.com/sirupsen/logrus"

	"loadnav/internal/alns"
	"loadnav/internal/ingest"
	"loadnav/internal/model"
)

// operatorList is a repeatable comma-friendly flag for operator names.
type operatorList []string

func (l *operatorList) String() string { return strings.Join(*l, ",") }

func (l *operatorList) Set(v string) error {
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*l = append(*l, name)
		}
	}
	return nil
}

// systemInfo is embedded in the output file so benchmark results carry
// the hardware they were produced on.
type systemInfo struct {
	CPU   string `json:"cpu,omitempty"`
	Cores int    `json:"cores,omitempty"`
	Host  string `json:"host,omitempty"`
	MemMB uint64 `json:"memMb,omitempty"`
}

// outputFile is the benchmark result document.
type outputFile struct {
	Instance string             `json:"instance"`
	Seed     uint64             `json:"seed"`
	Destroy  []string           `json:"destroyOperators"`
	Repair   []string           `json:"repairOperators"`
	Solution *model.SolutionOut `json:"solution"`
	System   systemInfo         `json:"system"`
}

func main() {
	var destroy, repair operatorList
	inputF := flag.String("input", "instance.json", "Path to the instance JSON")
	distanceF := flag.String("distance-csv", "", "Optional CSV distance matrix overriding the instance file")
	elevationF := flag.String("elevation-csv", "", "Optional CSV elevation matrix overriding the instance file")
	outputF := flag.String("output", "", "Path for the solution JSON (default: <input>.solution.json)")
	seed := flag.Uint64("seed", 0, "RNG seed, 0 keeps the default stream")
	maxTime := flag.Int("max-time", 600, "Wall-clock budget in seconds")
	maxIter := flag.Int("max-iterations", 10000, "Iterations without improvement before stopping")
	noise := flag.Float64("noise", 0, "Rank perturbation exponent")
	flag.Var(&destroy, "destroy", "Destroy operators (comma separated, repeatable)")
	flag.Var(&repair, "repair", "Repair operators (comma separated, repeatable)")
	flag.Parse()

	in, err := ingest.LoadInstance(*inputF)
	if err != nil {
		log.Fatalf("load instance: %v", err)
	}
	if *distanceF != "" {
		if in.Distance, err = ingest.LoadMatrixCSV(*distanceF); err != nil {
			log.Fatalf("load distance matrix: %v", err)
		}
	}
	if *elevationF != "" {
		if in.Elevation, err = ingest.LoadMatrixCSV(*elevationF); err != nil {
			log.Fatalf("load elevation matrix: %v", err)
		}
	}

	inst, err := ingest.BuildInstance(in)
	if err != nil {
		log.Fatalf("build instance: %v", err)
	}

	opts := alns.DefaultOptions()
	opts.MaxTime = time.Duration(*maxTime) * time.Second
	opts.MaxIterations = *maxIter
	opts.RandomNoise = *noise
	opts.Seed = *seed
	if len(destroy) > 0 {
		opts.DestroyOperators = destroy
	}
	if len(repair) > 0 {
		opts.RepairOperators = repair
	}

	search, err := alns.NewSearch(inst, opts)
	if err != nil {
		log.Fatalf("configure search: %v", err)
	}

	log.WithFields(log.Fields{
		"customers": inst.NCustomers,
		"vehicles":  inst.NVehicles,
		"destroy":   opts.DestroyOperators,
		"repair":    opts.RepairOperators,
	}).Info("solving")

	res, err := search.Solve()
	if err != nil {
		log.Fatalf("solve: %v", err)
	}
	sol := model.FromResult(res)

	printRoutes(sol)
	fmt.Printf("\ndriving time: %.3f  capa error: %.3f  frame error: %.3f  feasible: %v\n",
		sol.DrivingTime, sol.CapaError, sol.FrameError, sol.Feasible)
	fmt.Printf("iterations: %d  visited: %d  solve time: %dms\n", sol.Iterations, sol.Visited, sol.SolveTimeMs)

	out := outputFile{
		Instance: in.Name,
		Seed:     *seed,
		Destroy:  opts.DestroyOperators,
		Repair:   opts.RepairOperators,
		Solution: sol,
		System:   collectSystemInfo(),
	}

	path := *outputF
	if path == "" {
		path = strings.TrimSuffix(*inputF, ".json") + ".solution.json"
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("write solution: %v", err)
	}
	log.Infof("solution written to %s", path)
}

func printRoutes(sol *model.SolutionOut) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Vehicle", "Customers", "Start", "Driving", "Capa err", "Frame err"})
	for _, r := range sol.Routes {
		if len(r.Customers) == 0 {
			continue
		}
		stops := make([]string, len(r.Customers))
		for i, c := range r.Customers {
			stops[i] = strconv.Itoa(c)
		}
		table.Append([]string{
			strconv.Itoa(r.Vehicle),
			strings.Join(stops, " "),
			fmt.Sprintf("%.2f", r.StartTime),
			fmt.Sprintf("%.2f", r.DrivingTime),
			fmt.Sprintf("%.2f", r.CapaError),
			fmt.Sprintf("%.2f", r.FrameError),
		})
	}
	table.Render()
}

func collectSystemInfo() systemInfo {
	var info systemInfo
	if stats, err := cpu.Info(); err == nil && len(stats) > 0 {
		info.CPU = stats[0].ModelName
		info.Cores = len(stats)
	}
	if h, err := host.Info(); err == nil {
		info.Host = fmt.Sprintf("%s %s %s", h.Platform, h.PlatformVersion, h.KernelArch)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemMB = vm.Total / 1024 / 1024
	}
	return info
}
