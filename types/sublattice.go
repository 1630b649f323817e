package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Vacancy is the pseudo-species excluded from the mole-fraction basis.
const Vacancy = "VA"

// SublatticeEntry is one (phase, sublattice, species) occupation slot.
// Stoichiometry is the site multiplicity of the owning sublattice.
type SublatticeEntry struct {
	Phase         string
	Index         int
	Stoichiometry float64
	Species       string
}

// Name returns the site-fraction variable name <PHASE>_<SUBL>_<SPECIES>.
func (e SublatticeEntry) Name() string {
	return e.Phase + "_" + strconv.Itoa(e.Index) + "_" + e.Species
}

// PhaseFractionVariable is the phase-amount variable <PHASE>_FRAC.
func PhaseFractionVariable(phase string) string {
	return phase + "_FRAC"
}

// SublatticeSet indexes sublattice entries by phase and sublattice
// position. Entries keep insertion order within a sublattice.
type SublatticeSet struct {
	entries []SublatticeEntry
}

func (s *SublatticeSet) Add(e SublatticeEntry) {
	s.entries = append(s.entries, e)
}

// AddSublattice appends one sublattice of the phase with the given
// multiplicity and occupying species.
func (s *SublatticeSet) AddSublattice(phase string, index int, stoichiometry float64, species ...string) {
	for _, sp := range species {
		s.Add(SublatticeEntry{Phase: phase, Index: index, Stoichiometry: stoichiometry, Species: sp})
	}
}

// Phase returns the phase's entries ordered by (sublattice, insertion).
func (s *SublatticeSet) Phase(phase string) (R []SublatticeEntry) {
	for _, e := range s.entries {
		if e.Phase == phase {
			R = append(R, e)
		}
	}
	sort.SliceStable(R, func(i, j int) bool { return R[i].Index < R[j].Index })
	return
}

// Sublattice returns the entries of one sublattice of a phase.
func (s *SublatticeSet) Sublattice(phase string, index int) (R []SublatticeEntry) {
	for _, e := range s.entries {
		if e.Phase == phase && e.Index == index {
			R = append(R, e)
		}
	}
	return
}

// NumSublattices counts the sublattices of a phase.
func (s *SublatticeSet) NumSublattices(phase string) (N int) {
	for _, e := range s.entries {
		if e.Phase == phase && e.Index+1 > N {
			N = e.Index + 1
		}
	}
	return
}

// VariableNames lists the phase's site-fraction variable names in
// (sublattice, insertion) order; this ordering defines the phase-local
// variable indices.
func (s *SublatticeSet) VariableNames(phase string) (names []string) {
	for _, e := range s.Phase(phase) {
		names = append(names, e.Name())
	}
	return
}

// DependentDimensions returns the phase-local indices of the dependent
// site-fraction coordinates: the last species of every sublattice.
func (s *SublatticeSet) DependentDimensions(phase string) (dims []int) {
	var current int
	for subl := 0; subl < s.NumSublattices(phase); subl++ {
		n := len(s.Sublattice(phase, subl))
		if n > 0 {
			current += n - 1
			dims = append(dims, current)
			current++
		}
	}
	return
}

// TotalSites sums the site multiplicities over the phase's sublattices.
func (s *SublatticeSet) TotalSites(phase string) (total float64) {
	for subl := 0; subl < s.NumSublattices(phase); subl++ {
		entries := s.Sublattice(phase, subl)
		if len(entries) > 0 {
			total += entries[0].Stoichiometry
		}
	}
	return
}

// MoleFractionsFromSiteFractions converts one phase-internal point
// (site fractions in VariableNames order) to overall element mole
// fractions ordered by elements. Vacancies carry no mass and are
// excluded from the normalization.
func (s *SublatticeSet) MoleFractionsFromSiteFractions(phase string, point []float64, elements []string) (x []float64, err error) {
	var (
		entries = s.Phase(phase)
		moles   = make(map[string]float64)
		total   float64
	)
	if len(point) < len(entries) {
		return nil, fmt.Errorf("phase %s: point has %d coordinates, want %d", phase, len(point), len(entries))
	}
	for i, e := range entries {
		if e.Species == Vacancy {
			continue
		}
		moles[e.Species] += e.Stoichiometry * point[i]
		total += e.Stoichiometry * point[i]
	}
	if total <= 0 {
		return nil, fmt.Errorf("phase %s: no mass on any sublattice", phase)
	}
	x = make([]float64, len(elements))
	for i, el := range elements {
		x[i] = moles[el] / total
	}
	return
}

// PhaseNames lists the distinct phases, sorted.
func (s *SublatticeSet) PhaseNames() (names []string) {
	seen := make(map[string]bool)
	for _, e := range s.entries {
		if !seen[e.Phase] {
			seen[e.Phase] = true
			names = append(names, e.Phase)
		}
	}
	sort.Strings(names)
	return
}

// RenamePhase rewrites the phase name on every entry of a phase; used
// when a composition set is cloned for a miscibility gap.
func (s *SublatticeSet) RenamePhase(old, new string) {
	for i := range s.entries {
		if s.entries[i].Phase == old {
			s.entries[i].Phase = new
		}
	}
}

// IsPhaseVariable reports whether name is a variable of the phase, by
// prefix convention.
func IsPhaseVariable(name, phase string) bool {
	return strings.HasPrefix(name, phase+"_")
}
