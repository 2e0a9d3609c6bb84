/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/strayward/stopd/api"
	"github.com/strayward/stopd/ingest"
	"github.com/strayward/stopd/metrics/influxdb"
	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/state"
	"github.com/strayward/stopd/types/tracepoint"
)

var optClassifier string
var optModelPath string
var optDecisionThreshold float64
var optSpeedThreshold float64
var optMinStopDuration time.Duration
var optWorkersN int
var optEmitPoints bool
var optSave bool
var optInflux bool

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect [files...]",
	Short: "Detect stops in GPS trace files",
	Long: `

Reads CSV or NDJSON trace files (stdin if no files given), derives motion
features per point, classifies each point as stopped or moving, and prints
per-trace statistics as JSON.

A .gz suffix is transparently decompressed. Format is chosen by extension:
.json/.ndjson/.geojson decode as JSON lines, everything else as CSV.
Any malformed row fails the whole run; nothing partial is emitted.

Flags:

  --classifier   "rule" (speed threshold + minimum dwell) or "model"
                 (pre-trained artifact; local path, s3://, or http(s)://).
  --points       Emit classified points as NDJSON instead of statistics.
  --save         Persist the run under the datadir.
  --influx       Export classified points to InfluxDB (INFLUXDB_* env).

Examples:

  stopd detect traces.csv
  zcat traces.csv.gz | stopd detect --classifier model --model s3://models/stop-forest.json
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		ctx, stop := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
		defer stop()

		ccfg := &params.ClassifierConfig{
			Mode: params.ClassifierMode(optClassifier),
			Rule: &params.RuleClassifierConfig{
				SpeedThresholdKmh: optSpeedThreshold,
				MinStopDuration:   optMinStopDuration,
			},
			Model: &params.ModelClassifierConfig{
				Path:              optModelPath,
				DecisionThreshold: optDecisionThreshold,
			},
		}
		analyzer, err := api.NewAnalyzer(ccfg, &params.DeriverConfig{Workers: optWorkersN})
		if err != nil {
			log.Fatalln(err)
		}

		points, err := readInputs(args)
		if err != nil {
			log.Fatalln(err)
		}
		slices.SortStableFunc(points, tracepoint.SortFunc)

		result, err := analyzer.AnalyzePoints(ctx, points)
		if err != nil {
			log.Fatalln(err)
		}
		slog.Info("Detect done",
			"points", humanize.Comma(int64(len(points))),
			"records", humanize.Comma(int64(len(result.Records))),
			"traces", len(result.Stats))

		if optSave {
			store, err := state.NewStore(viper.GetString("datadir"))
			if err != nil {
				log.Fatalln(err)
			}
			id := time.Now().UTC().Format("20060102T150405.000000000")
			if err := store.WriteRun(id, result.Records, result.Stats); err != nil {
				log.Fatalln(err)
			}
			if err := store.Close(); err != nil {
				log.Fatalln(err)
			}
		}
		if optInflux {
			if err := influxdb.ExportClassifiedRecords(result.Records); err != nil {
				log.Fatalln(err)
			}
		}

		enc := json.NewEncoder(os.Stdout)
		if optEmitPoints {
			for i := range result.Records {
				if err := enc.Encode(result.Records[i].GeoJSON()); err != nil {
					log.Fatalln(err)
				}
			}
			return
		}
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Stats); err != nil {
			log.Fatalln(err)
		}
	},
}

// readInputs normalizes every named file, or stdin CSV when none are named.
func readInputs(args []string) ([]tracepoint.TracePoint, error) {
	if len(args) == 0 {
		return ingest.ReadCSV(os.Stdin)
	}
	var points []tracepoint.TracePoint
	for _, name := range args {
		pts, err := readFile(name)
		if err != nil {
			return nil, err
		}
		points = append(points, pts...)
	}
	return points, nil
}

func readFile(name string) ([]tracepoint.TracePoint, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".ndjson", ".geojson":
		return ingest.ReadNDJSON(r)
	default:
		return ingest.ReadCSV(r)
	}
}

func init() {
	rootCmd.AddCommand(detectCmd)

	ruleDefaults := params.DefaultRuleClassifierConfig
	modelDefaults := params.DefaultModelClassifierConfig

	flags := detectCmd.Flags()
	bindClassifierFlags(flags, &optClassifier, &optModelPath)
	flags.Float64Var(&optDecisionThreshold, "threshold", modelDefaults.DecisionThreshold, "Stop-probability decision threshold overriding the artifact's own; 0 defers to the artifact (model classifier)")
	flags.Float64Var(&optSpeedThreshold, "speed-threshold", ruleDefaults.SpeedThresholdKmh, "Stopped-speed threshold, km/h (rule classifier)")
	flags.DurationVar(&optMinStopDuration, "min-stop-duration", ruleDefaults.MinStopDuration, "Minimum dwell for a stopped point (rule classifier)")
	flags.IntVar(&optWorkersN, "workers", params.DefaultDeriverConfig.Workers, "Number of traces to derive in parallel")
	flags.BoolVar(&optEmitPoints, "points", false, "Emit classified points as NDJSON GeoJSON instead of statistics")
	flags.BoolVar(&optSave, "save", false, "Persist the run under the datadir")
	flags.BoolVar(&optInflux, "influx", false, "Export classified points to InfluxDB")
}
