package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// One rectangular refinement patch in physical coordinates, carrying the
// number of levels to add inside it
type RefineRegion struct {
	X0    float64 `yaml:"X0"`
	Y0    float64 `yaml:"Y0"`
	X1    float64 `yaml:"X1"`
	Y1    float64 `yaml:"Y1"`
	Depth uint8   `yaml:"Depth"`
}

// Parameters obtained from the YAML input file
type InputParameters2D struct {
	Title          string         `yaml:"Title"`
	Ni             int            `yaml:"Ni"`
	Nj             int            `yaml:"Nj"`
	CellLen        float64        `yaml:"CellLen"`
	BlockCellLen   int            `yaml:"BlockCellLen"` // cells per coarse block edge
	Overlap        int            `yaml:"Overlap"`      // ghost layer width in cells
	TargetBlockNum int            `yaml:"TargetBlockNum"`
	Workers        int            `yaml:"Workers"`
	Steps          int            `yaml:"Steps"`
	Omega          float64        `yaml:"Omega"` // relaxation rate of the model update
	InitValue      float64        `yaml:"InitValue"`
	RefineRegions  []RefineRegion `yaml:"RefineRegions"`
}

func (ip *InputParameters2D) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	return ip.Validate()
}

// Validate catches the configuration mistakes that would otherwise surface
// deep inside geometry construction
func (ip *InputParameters2D) Validate() error {
	if ip.Ni <= 0 || ip.Nj <= 0 {
		return fmt.Errorf("domain resolution must be positive, got %dx%d", ip.Ni, ip.Nj)
	}
	if ip.CellLen <= 0 {
		return fmt.Errorf("CellLen must be positive, got %g", ip.CellLen)
	}
	if ip.BlockCellLen <= 0 {
		return fmt.Errorf("BlockCellLen must be positive, got %d", ip.BlockCellLen)
	}
	if ip.Workers < 1 {
		return fmt.Errorf("Workers must be at least 1, got %d", ip.Workers)
	}
	if len(ip.RefineRegions) > 0 && ip.Overlap%2 != 0 {
		return fmt.Errorf("Overlap must be even when refinement is requested, got %d", ip.Overlap)
	}
	for i, r := range ip.RefineRegions {
		if r.X1 <= r.X0 || r.Y1 <= r.Y0 {
			return fmt.Errorf("RefineRegions[%d] is degenerate: (%g,%g)-(%g,%g)",
				i, r.X0, r.Y0, r.X1, r.Y1)
		}
	}
	return nil
}

func (ip *InputParameters2D) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%dx%d\t\t= Domain Resolution\n", ip.Ni, ip.Nj)
	fmt.Printf("%8.5f\t\t= CellLen\n", ip.CellLen)
	fmt.Printf("[%d]\t\t\t= Block Cell Length\n", ip.BlockCellLen)
	fmt.Printf("[%d]\t\t\t= Ghost Overlap\n", ip.Overlap)
	fmt.Printf("[%d]\t\t\t= Target Block Count\n", ip.TargetBlockNum)
	fmt.Printf("[%d]\t\t\t= Workers\n", ip.Workers)
	fmt.Printf("[%d]\t\t\t= Steps\n", ip.Steps)
	fmt.Printf("%8.5f\t\t= Omega\n", ip.Omega)
	for i, r := range ip.RefineRegions {
		fmt.Printf("RefineRegions[%d] = (%g,%g)-(%g,%g) depth %d\n",
			i, r.X0, r.Y0, r.X1, r.Y1, r.Depth)
	}
}
