/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

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
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zdxying/FreeLB/geometry2D"
)

// GeomCmd represents the geom command
var GeomCmd = &cobra.Command{
	Use:   "geom",
	Short: "Build and report the block decomposition without running the model",
	Long: `
Runs the full decomposition pipeline from a YAML input file, then prints the
resulting blocks, their refinement levels, worker assignments and
communication records. Useful for tuning TargetBlockNum and Workers before a
long run.

freelb geom -I input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		m2d := &Model2D{}
		if m2d.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		m2d.Workers, _ = cmd.Flags().GetInt("workers")
		ip := processInput(m2d)
		geo, err := BuildGeometry2D(ip)
		if err != nil {
			logrus.Fatalf("geometry construction failed: %v", err)
		}
		PrintGeometry2D(geo)
		printWorkerLoads(geo)
	},
}

func init() {
	rootCmd.AddCommand(GeomCmd)
	GeomCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file with domain, refinement and run parameters")
	GeomCmd.Flags().IntP("workers", "w", 0, "override the worker count from the input file")
}

func printWorkerLoads(geo *geometry2D.BlockGeometry2D) {
	for w := 0; w < geo.NumWorkers; w++ {
		ids := geo.OwnedBy(w)
		var load float64
		for _, id := range ids {
			load += geometry2D.BlockWeight(geo.Blocks[id].BasicBlock)
		}
		fmt.Printf("  worker %2d  blocks %2d  load %.0f\n", w, len(ids), load)
	}
}
