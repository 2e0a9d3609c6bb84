package testdata

import (
	"path/filepath"
	"runtime"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path the given relative file or directory path,
// relative to this testdata/ directory in the user's GOPATH.
// If rel is already absolute, it is returned unmodified.
// Taken from https://github.com/grpc/grpc-go/blob/master/testdata/testdata.go.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(basepath, rel)
}

// Source_TracesCSV holds two devices, one trace each; rows arrive unsorted.
// Device 1 dwells around second 10 and moves again at second 20.
var Source_TracesCSV = "./traces.csv"

// Source_TracesNDJSON is the JSON-lines twin of the CSV fixture,
// for a third device.
var Source_TracesNDJSON = "./traces.ndjson"

// Source_StopForest is a two-tree forest artifact splitting on distance_m:
// near-zero displacement scores 0.9 stopped, anything farther 0.1.
var Source_StopForest = "./stop-forest.json"
