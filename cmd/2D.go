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
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zdxying/FreeLB/InputParameters"
	"github.com/zdxying/FreeLB/geometry2D"
	"github.com/zdxying/FreeLB/lattice"
)

type Model2D struct {
	ICFile  string
	Workers int
	Steps   int
	Profile bool
}

// TwoDCmd represents the 2D command
var TwoDCmd = &cobra.Command{
	Use:   "2D",
	Short: "Two dimensional adaptively refined lattice run",
	Long:  `Builds the refined block decomposition from a YAML input file and advances the lattice model on it`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("2D called")
		m2d := &Model2D{}
		if m2d.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		m2d.Workers, _ = cmd.Flags().GetInt("workers")
		m2d.Steps, _ = cmd.Flags().GetInt("steps")
		m2d.Profile, _ = cmd.Flags().GetBool("profile")
		ip := processInput(m2d)
		Run2D(m2d, ip)
	},
}

func processInput(m2d *Model2D) (ip *InputParameters.InputParameters2D) {
	var (
		err error
	)
	if len(m2d.ICFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Refined Cavity"
Ni: 64
Nj: 64
CellLen: 1.
BlockCellLen: 16
Overlap: 2
TargetBlockNum: 24
Workers: 4
Steps: 100
Omega: 1.
InitValue: 1.
RefineRegions:
  - {X0: 24., Y0: 24., X1: 40., Y1: 40., Depth: 1}
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(m2d.ICFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.InputParameters2D{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	// command line overrides
	if m2d.Workers > 0 {
		ip.Workers = m2d.Workers
	}
	if m2d.Steps > 0 {
		ip.Steps = m2d.Steps
	}
	return
}

func init() {
	rootCmd.AddCommand(TwoDCmd)
	TwoDCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file with domain, refinement and run parameters")
	TwoDCmd.Flags().IntP("workers", "w", 0, "override the worker count from the input file")
	TwoDCmd.Flags().IntP("steps", "s", 0, "override the step count from the input file")
	TwoDCmd.Flags().BoolP("profile", "p", false, "write a CPU profile of the run to the working directory")
}

func Run2D(m2d *Model2D, ip *InputParameters.InputParameters2D) {
	if m2d.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	ip.Print()
	geo, err := BuildGeometry2D(ip)
	if err != nil {
		logrus.Fatalf("geometry construction failed: %v", err)
	}
	PrintGeometry2D(geo)

	mgr := lattice.NewBlockLatticeManager(geo, lattice.D2Q9(), ip.InitValue)
	start := time.Now()
	err = mgr.RunSteps(ip.Steps, func(step int, lat *lattice.BlockLattice) {
		lat.Relax(ip.Omega)
	})
	if err != nil {
		logrus.Fatalf("run aborted: %v", err)
	}
	elapsed := time.Since(start)
	var (
		cells = geo.GetTotalCellNum()
		mlups = float64(cells) * float64(ip.Steps) / elapsed.Seconds() / 1.e6
	)
	fmt.Printf("%d steps over %d cells in %v (%.2f MLUPS)\n",
		ip.Steps, cells, elapsed, mlups)
}

// BuildGeometry2D runs the whole decomposition pipeline: tile, refine to the
// requested depths, restore 2:1 balance, optimize towards the target block
// count, balance the load and freeze the result
func BuildGeometry2D(ip *InputParameters.InputParameters2D) (*geometry2D.BlockGeometry2D, error) {
	var (
		domain = geometry2D.AABB{
			Min: geometry2D.Vec{0, 0},
			Max: geometry2D.Vec{float64(ip.Ni) * ip.CellLen, float64(ip.Nj) * ip.CellLen},
		}
	)
	h, err := geometry2D.NewBlockGeometryHelper2D(ip.Ni, ip.Nj, domain, ip.CellLen, ip.BlockCellLen)
	if err != nil {
		return nil, err
	}
	if len(ip.RefineRegions) > 0 {
		regions := make([]geometry2D.AABB, len(ip.RefineRegions))
		for i, r := range ip.RefineRegions {
			regions[i] = geometry2D.AABB{
				Min: geometry2D.Vec{r.X0, r.Y0},
				Max: geometry2D.Vec{r.X1, r.Y1},
			}
		}
		err = h.ForEachBlockCell(func(b geometry2D.BasicBlock) uint8 {
			var depth uint8
			for i, region := range regions {
				if geometry2D.IsOverlapped(b.AABB, region) && ip.RefineRegions[i].Depth > depth {
					depth = ip.RefineRegions[i].Depth
				}
			}
			return depth
		})
		if err != nil {
			return nil, err
		}
		if err = h.CheckRefine(); err != nil {
			return nil, err
		}
	}
	if err = h.CreateBlocks(ip.Overlap); err != nil {
		return nil, err
	}
	if ip.TargetBlockNum > 0 {
		if err = h.AdaptiveOptimization(ip.TargetBlockNum); err != nil {
			return nil, err
		}
	}
	if _, err = h.LoadBalancing(ip.Workers); err != nil {
		return nil, err
	}
	return geometry2D.NewBlockGeometry2D(h)
}

func PrintGeometry2D(geo *geometry2D.BlockGeometry2D) {
	fmt.Printf("%d blocks, %d cells, %d workers\n",
		len(geo.Blocks), geo.GetTotalCellNum(), geo.NumWorkers)
	for i := range geo.Blocks {
		b := &geo.Blocks[i]
		fmt.Printf("  block %3d  level %d  %3dx%-3d  worker %d  comms %d\n",
			b.ID, b.Level, b.Nx, b.Ny, b.Worker, len(b.Comms))
	}
}
