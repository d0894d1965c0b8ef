package nova

// ContactPositionCorrection selects how the solver removes positional
// drift between dynamic bodies in contact.
type ContactPositionCorrection int

const (
	// Baumgarte folds a position-error bias into the velocity solve.
	Baumgarte ContactPositionCorrection = iota
	// NGS (Non-linear Gauss-Seidel) runs a separate pass directly on
	// positions/angles after velocity integration.
	NGS
)

// SpaceSettings controls the tuning of the substep pipeline. All fields are
// directly mutable on Space.Settings, mirroring the source engine's plain
// settings struct rather than an external config loader.
type SpaceSettings struct {
	Baumgarte                   float64
	PenetrationSlop             float64
	ContactPositionCorrection   ContactPositionCorrection
	VelocityIterations          int
	PositionIterations          int
	Substeps                    int
	LinearDamping               float64
	AngularDamping              float64
	Warmstarting                bool
	RestitutionMix              CoefficientMix
	FrictionMix                 CoefficientMix
	RestitutionThreshold        float64
	MaxLinearCorrection         float64

	// SHGCellSize configures the optional spatial hash grid broad-phase.
	// Zero selects a default of 1.0 world units.
	SHGCellSize float64
}

// DefaultSpaceSettings mirrors the source engine's defaults: moderate
// Baumgarte stabilization, a small penetration allowance, warmstarting on,
// one substep, and average coefficient mixing.
func DefaultSpaceSettings() SpaceSettings {
	return SpaceSettings{
		Baumgarte:                 0.2,
		PenetrationSlop:           0.01,
		ContactPositionCorrection: Baumgarte,
		VelocityIterations:        8,
		PositionIterations:        4,
		Substeps:                  1,
		LinearDamping:             0.0002,
		AngularDamping:            0.0002,
		Warmstarting:              true,
		RestitutionMix:            MixAverage,
		FrictionMix:               MixAverage,
		RestitutionThreshold:      0.5,
		MaxLinearCorrection:       0.2,
		SHGCellSize:               1.0,
	}
}

// GravEarth is the standard Earth gravity constant used by the source
// engine's examples, exposed for callers that want a realistic default.
const GravEarth = 9.81
