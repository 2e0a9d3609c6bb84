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
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/strayward/stopd/params"
)

var optVerbosity int
var optDatadir string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stopd",
	Short: "Stop detection for GPS traces",
	Long: `stopd normalizes raw GPS trace uploads, derives per-point motion
features, classifies points as stopped or moving, and aggregates
per-trace statistics.

Input rows need geom_wkt, trace_number, device_id, and ts columns.
Points are grouped by (device_id, trace_number) and ordered by time
before any feature is derived.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pFlags := rootCmd.PersistentFlags()
	pFlags.CountVarP(&optVerbosity, "verbose", "v", "Increase logging verbosity (-v, -vv)")
	pFlags.StringVar(&optDatadir, "datadir", params.DefaultDatadirRoot, "Data directory for persisted runs")

	viper.SetEnvPrefix("STOPD")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("datadir", pFlags.Lookup("datadir"))
}

// bindClassifierFlags wires the strategy-selection flags shared by commands
// that run the pipeline.
func bindClassifierFlags(flags *pflag.FlagSet, mode, model *string) {
	flags.StringVar(mode, "classifier", string(params.ClassifierModeRule), "Classification strategy: rule|model")
	flags.StringVar(model, "model", "", "Model artifact: local path, s3://bucket/key, or http(s):// scoring service")
}

// setDefaultSlog configures the default slog level from the --verbose count.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	switch {
	case optVerbosity == 1:
		level = slog.LevelDebug
	case optVerbosity > 1:
		level = slog.LevelDebug - slog.Level(4*(optVerbosity-1))
	}
	slog.SetLogLoggerLevel(level)
}
