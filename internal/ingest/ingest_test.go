package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"loadnav/internal/model"
)

func TestBuildInstanceVRPTW(t *testing.T) {
	in := model.InstanceIn{
		NVehicles:       1,
		Demand:          []float64{5},
		ServiceTimes:    []float64{2},
		StartWindow:     []float64{10},
		EndWindow:       []float64{20},
		Distance:        [][]float64{{0, 3}, {3, 0}},
		TimeTensor:      [][][]float64{{{0, 3}, {3, 0}}},
		VehicleCapacity: 200,
	}
	inst, err := BuildInstance(in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if inst.NCustomers != 1 || inst.NVehicles != 1 {
		t.Fatalf("dims: %+v", inst)
	}
}

func TestBuildInstanceNeedsElevationOrTensor(t *testing.T) {
	in := model.InstanceIn{
		Name:         "broken",
		NVehicles:    1,
		Demand:       []float64{5},
		ServiceTimes: []float64{2},
		StartWindow:  []float64{10},
		EndWindow:    []float64{20},
		Distance:     [][]float64{{0, 3}, {3, 0}},
	}
	if _, err := BuildInstance(in); err == nil {
		t.Fatal("expected error for instance without elevation or tensor")
	}
}

func TestLoadInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inst.json")
	doc := `{"name":"file","nVehicles":1,"demand":[5],"serviceTimes":[2],
	  "startWindow":[10],"endWindow":[20],
	  "distance":[[0,3],[3,0]],"timeTensor":[[[0,3],[3,0]]],"vehicleCapacity":200}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	in, err := LoadInstance(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if in.Name != "file" || in.VehicleCapacity != 200 {
		t.Fatalf("got %+v", in)
	}

	if _, err := LoadInstance(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMatrixCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv")
	if err := os.WriteFile(path, []byte("0,1.5\n2.5,0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMatrixCSV(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(m) != 2 || m[0][1] != 1.5 || m[1][0] != 2.5 {
		t.Fatalf("got %v", m)
	}
}

func TestLoadMatrixCSVRejectsRagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("0,1,2\n3,0,4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMatrixCSV(path); err == nil {
		t.Fatal("expected error for non-square matrix")
	}
}
