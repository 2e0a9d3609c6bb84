package params

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
)

const (
	DatasetsDir = "datasets"

	RecordsGZFileName = "records.geojson.gz"
	StatsFileName     = "stats.json"
)

// DefaultDatadirRoot is where stopd keeps its state unless told otherwise.
var DefaultDatadirRoot = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".stopd")
}()

// ResolveDatadir expands a leading ~ in a datadir flag/config value.
func ResolveDatadir(path string) string {
	if path == "" {
		return DefaultDatadirRoot
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

var StateDBName = "state.db"
var StatsBucket = []byte("stats")
var RunsBucket = []byte("runs")

// MetricsEnabled gates the go-ethereum metrics registry used by scan meters.
var MetricsEnabled = true

var (
	// CacheLastResultTTL bounds how long the webd "last analyzed" dataset
	// sticks around without being re-requested.
	CacheLastResultTTL = 24 * time.Hour

	// ResultCacheSize is the number of uploaded datasets webd keeps by id.
	ResultCacheSize = 32
)

var (
	INFLUXDB_URL    = os.Getenv("INFLUXDB_URL")
	INFLUXDB_TOKEN  = os.Getenv("INFLUXDB_TOKEN")
	INFLUXDB_ORG    = os.Getenv("INFLUXDB_ORG")
	INFLUXDB_BUCKET = os.Getenv("INFLUXDB_BUCKET")
)
