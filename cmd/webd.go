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
	"log"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/strayward/stopd/daemon/webd"
	"github.com/strayward/stopd/params"
)

var optHTTPAddr string
var optWebdClassifier string
var optWebdModelPath string

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long:  `Serves stop detection over HTTP: uploads, statistics, points, and a websocket feed`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		slog.Info("webd.Run")

		config := params.DefaultWebDaemonConfig()
		config.Address = optHTTPAddr
		config.DataDir = viper.GetString("datadir")
		config.Classifier.Mode = params.ClassifierMode(optWebdClassifier)
		config.Classifier.Model.Path = optWebdModelPath

		server, err := webd.NewWebDaemon(config)
		if err != nil {
			log.Fatalln(err)
		}
		defer server.Close()

		if err := server.Run(); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()

	pFlags := webdCmd.PersistentFlags()
	pFlags.StringVar(&optHTTPAddr, "address", defaults.Address, "HTTP address to listen on")
	bindClassifierFlags(pFlags, &optWebdClassifier, &optWebdModelPath)
}
