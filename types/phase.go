package types

// Phase carries the conditions-independent attributes of a candidate
// phase: its name and the IHJ magnetic model constants. The site
// structure lives in the SublatticeSet.
type Phase struct {
	Name string
	// MagneticAFMFactor divides negative Curie temperatures and
	// magnetic moments (antiferromagnetic convention, typically -1
	// or -3). Zero disables the magnetic contribution.
	MagneticAFMFactor float64
	// MagneticSROFraction is the structure-dependent fraction of the
	// total magnetic enthalpy due to short-range ordering above the
	// critical temperature (0.28 for fcc, 0.4 for bcc).
	MagneticSROFraction float64
}
