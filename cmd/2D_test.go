package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"
	"github.com/stretchr/testify/require"

	"github.com/zdxying/FreeLB/InputParameters"
	"github.com/zdxying/FreeLB/lattice"
)

func TestRun2D(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Test Case
Ni: 64
Nj: 64
CellLen: 1.
BlockCellLen: 16
Overlap: 2
TargetBlockNum: 24
Workers: 2
Steps: 4
Omega: 1.
InitValue: 1.
RefineRegions:
  - {X0: 24., Y0: 24., X1: 40., Y1: 40., Depth: 1}
`)
	var input InputParameters.InputParameters2D
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, input.Ni, 64)
	assert.Equal(t, input.BlockCellLen, 16)
	assert.Equal(t, input.RefineRegions[0].Depth, uint8(1))
	input.Print()
	assert.Equal(t, input.Omega, 1.)

	geo, err := BuildGeometry2D(&input)
	require.NoError(t, err)
	require.NotEmpty(t, geo.Blocks)
	require.Equal(t, 2, geo.NumWorkers)

	// the refine region must have produced level-1 blocks
	refined := 0
	for id := range geo.Blocks {
		if geo.Blocks[id].Level > 0 {
			refined++
		}
	}
	require.NotZero(t, refined)

	// a short run over the built geometry must complete with every expected
	// ghost transfer arriving
	mgr := lattice.NewBlockLatticeManager(geo, lattice.D2Q9(), input.InitValue)
	err = mgr.RunSteps(input.Steps, func(step int, lat *lattice.BlockLattice) {
		lat.Relax(input.Omega)
	})
	require.NoError(t, err)
}

func TestInputValidation(t *testing.T) {
	var input InputParameters.InputParameters2D
	err := input.Parse([]byte(`
Title: Broken
Ni: 0
Nj: 64
CellLen: 1.
BlockCellLen: 16
Workers: 1
`))
	require.Error(t, err)
}
