package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"loadnav/internal/alns"
	"loadnav/internal/model"
)

// BuildInstance validates a wire instance and hands it to the solver's
// preprocessing. The presence of a time tensor selects the degenerate
// time-window form; otherwise elevation data is required and the tensor
// is computed from the power model.
func BuildInstance(in model.InstanceIn) (*alns.Instance, error) {
	cfg := alns.Config{
		NVehicles:       in.NVehicles,
		Demand:          in.Demand,
		ServiceTime:     in.ServiceTimes,
		StartWindow:     in.StartWindow,
		EndWindow:       in.EndWindow,
		Distance:        in.Distance,
		Elevation:       in.Elevation,
		VehicleWeight:   in.VehicleWeight,
		VehicleCapacity: in.VehicleCapacity,
		LoadBucketSize:  in.LoadBucketSize,
		NLoadBuckets:    in.NLoadBuckets,
	}
	if len(in.TimeTensor) > 0 {
		return alns.NewInstanceVRPTW(cfg, in.TimeTensor)
	}
	if len(in.Elevation) == 0 {
		return nil, fmt.Errorf("ingest: instance %q has neither elevation nor time tensor", in.Name)
	}
	return alns.NewInstance(cfg)
}

// LoadInstance reads an instance JSON document from disk.
func LoadInstance(path string) (model.InstanceIn, error) {
	var in model.InstanceIn
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("ingest: parse %s: %w", path, err)
	}
	return in, nil
}

// LoadMatrixCSV reads a square float matrix shipped as a plain CSV
// file, e.g. a distance or elevation matrix exported from a spreadsheet.
func LoadMatrixCSV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: read %s: %w", path, err)
	}

	out := make([][]float64, len(records))
	for i, rec := range records {
		if len(rec) != len(records) {
			return nil, fmt.Errorf("ingest: %s row %d has %d columns, want %d", path, i+1, len(rec), len(records))
		}
		out[i] = make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("ingest: %s row %d col %d: %w", path, i+1, j+1, err)
			}
			out[i][j] = v
		}
	}
	return out, nil
}
