package builtin

import (
	"math"

	"go.viam.com/docking/services/docking"
)

// validErrorSignal reports whether signal may be acted on.
func validErrorSignal(signal docking.ErrorSignal) bool {
	for _, v := range []float64{
		signal.ForwardDistanceMM, signal.LateralOffsetMM, signal.AngleOffsetRad, signal.MarkerHeightMM,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return signal.Plausible()
}
