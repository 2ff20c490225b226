package geometry2D

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// CostFactor is the per cell update cost at a refinement level relative to
// level 0. Finer levels sub-step, doubling the work per level.
func CostFactor(level uint8) float64 {
	return float64(int(1) << level)
}

// BlockWeight is the load balancing weight of one block
func BlockWeight(b BasicBlock) float64 {
	return float64(b.N) * CostFactor(b.Level)
}

// LoadBalancing assigns every block to one of W workers with the Longest
// Processing Time first heuristic: blocks sorted by weight descending, each
// placed on the currently least loaded worker. The resulting makespan is at
// most (4/3 - 1/(3W)) times optimal. When W exceeds the block count every
// worker receives at most one block and the remainder stay idle.
func (h *BlockGeometryHelper2D) LoadBalancing(W int) ([]int, error) {
	if len(h.blocks) == 0 {
		return nil, configErrorf("LoadBalancing with no blocks; run CreateBlocks first")
	}
	if W < 1 {
		return nil, &BalanceError{Msg: "worker count must be positive"}
	}
	var (
		order = make([]int, len(h.blocks))
		loads = make([]float64, W)
	)
	h.workerOf = make([]int, len(h.blocks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		wi, wj := BlockWeight(h.blocks[order[i]]), BlockWeight(h.blocks[order[j]])
		if wi != wj {
			return wi > wj
		}
		return order[i] < order[j]
	})
	for _, id := range order {
		w := leastLoaded(loads)
		h.workerOf[id] = w
		loads[w] += BlockWeight(h.blocks[id])
	}
	h.numWorkers = W
	logrus.Infof("load balancing: %d blocks over %d workers, mean load %.1f, stddev %.1f",
		len(h.blocks), W, stat.Mean(loads, nil), stat.StdDev(loads, nil))
	return h.workerOf, nil
}

func leastLoaded(loads []float64) (w int) {
	for i := 1; i < len(loads); i++ {
		if loads[i] < loads[w] {
			w = i
		}
	}
	return
}
