package InputParameters

import (
	"fmt"
	"sort"

	"github.com/Teslos/pycalphad/types"
	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type EquilibriumParameters struct {
	Title                         string                `yaml:"Title"`
	CriticalEdgeLength            float64               `yaml:"CriticalEdgeLength"`
	InitialSubdivisionsPerAxis    int                   `yaml:"InitialSubdivisionsPerAxis"`
	RefinementSubdivisionsPerAxis int                   `yaml:"RefinementSubdivisionsPerAxis"`
	MaxSearchDepth                int                   `yaml:"MaxSearchDepth"`
	DiscardUnstable               *bool                 `yaml:"DiscardUnstable"`
	CoplanarityAllowance          float64               `yaml:"CoplanarityAllowance"`
	StateVariables                map[string]float64    `yaml:"StateVariables"` // keyed by single-character code: T, P, N
	Elements                      []string              `yaml:"Elements"`
	MoleFractions                 map[string]float64    `yaml:"MoleFractions"`
	Phases                        map[string]PhaseInput `yaml:"Phases"`
}

// PhaseInput defines one candidate phase: status, site structure and
// its Gibbs parameter entries.
type PhaseInput struct {
	Status              string             `yaml:"Status"`
	MagneticAFMFactor   float64            `yaml:"MagneticAFMFactor"`
	MagneticSROFraction float64            `yaml:"MagneticSROFraction"`
	Sublattices         []SublatticeInput  `yaml:"Sublattices"`
	Endmembers          map[string]float64 `yaml:"Endmembers"`   // key "A:B" picks one species per sublattice
	Interactions        []InteractionInput `yaml:"Interactions"` // Redlich-Kister entries
}

type SublatticeInput struct {
	Stoichiometry float64  `yaml:"Stoichiometry"`
	Species       []string `yaml:"Species"`
}

type InteractionInput struct {
	Constituents []string `yaml:"Constituents"` // one entry per sublattice, species joined with ","
	Degree       int      `yaml:"Degree"`
	Value        float64  `yaml:"Value"`
}

// NewEquilibriumParameters fills the recognized tunables with their
// defaults.
func NewEquilibriumParameters() *EquilibriumParameters {
	discard := true
	return &EquilibriumParameters{
		CriticalEdgeLength:            0.05,
		InitialSubdivisionsPerAxis:    20,
		RefinementSubdivisionsPerAxis: 2,
		MaxSearchDepth:                5,
		DiscardUnstable:               &discard,
		CoplanarityAllowance:          0.001,
	}
}

func (ep *EquilibriumParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ep)
}

// Conditions converts the parameter record into the engine's
// conditions record.
func (ep *EquilibriumParameters) Conditions() (types.Conditions, error) {
	cond := types.NewConditions()
	for code, val := range ep.StateVariables {
		if len(code) != 1 {
			return cond, fmt.Errorf("state variable code %q must be a single character", code)
		}
		cond.StateVars[code[0]] = val
	}
	cond.Elements = append(cond.Elements, ep.Elements...)
	for el, x := range ep.MoleFractions {
		cond.XFrac[el] = x
	}
	for name, phase := range ep.Phases {
		status := phase.Status
		if status == "" {
			status = "entered"
		}
		ps, err := types.ParsePhaseStatus(status)
		if err != nil {
			return cond, fmt.Errorf("phase %s: %w", name, err)
		}
		cond.Phases[name] = ps
	}
	if err := cond.Validate(); err != nil {
		return cond, err
	}
	return cond, nil
}

func (ep *EquilibriumParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ep.Title)
	fmt.Printf("%8.5f\t\t= CriticalEdgeLength\n", ep.CriticalEdgeLength)
	fmt.Printf("[%d]\t\t\t= InitialSubdivisionsPerAxis\n", ep.InitialSubdivisionsPerAxis)
	fmt.Printf("[%d]\t\t\t= RefinementSubdivisionsPerAxis\n", ep.RefinementSubdivisionsPerAxis)
	fmt.Printf("[%d]\t\t\t= MaxSearchDepth\n", ep.MaxSearchDepth)
	fmt.Printf("%8.5f\t\t= CoplanarityAllowance\n", ep.CoplanarityAllowance)
	fmt.Printf("%v\t= Elements\n", ep.Elements)
	keys := make([]string, 0, len(ep.Phases))
	for k := range ep.Phases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Phases[%s] = %s\n", key, ep.Phases[key].Status)
	}
}
