package mef

import (
	"math"

	"github.com/astrokit/mefkit/fits"
)

// VarianceUncertainty holds per-pixel uncertainty. The public notion is
// variance; the stored representation is standard deviation, and the two are
// algebraic inverses to float precision. Persisting stddev keeps arithmetic
// propagation cheap while VAR planes on disk stay variance.
type VarianceUncertainty struct {
	stddev *fits.Image
}

// NewVarianceUncertainty interprets values as variance and stores its
// square root.
func NewVarianceUncertainty(variance *fits.Image) *VarianceUncertainty {
	sd := variance.Clone()
	for i, v := range sd.Pix {
		sd.Pix[i] = math.Sqrt(v)
	}
	return &VarianceUncertainty{stddev: sd}
}

// NewStdDevUncertainty wraps values that already are standard deviations.
func NewStdDevUncertainty(stddev *fits.Image) *VarianceUncertainty {
	return &VarianceUncertainty{stddev: stddev}
}

// StdDev returns the stored standard-deviation plane.
func (u *VarianceUncertainty) StdDev() *fits.Image {
	if u == nil {
		return nil
	}
	return u.stddev
}

// AsVariance squares the stored plane back into variance.
func (u *VarianceUncertainty) AsVariance() *fits.Image {
	if u == nil || u.stddev == nil {
		return nil
	}
	out := u.stddev.Clone()
	for i, v := range out.Pix {
		out.Pix[i] = v * v
	}
	return out
}

// Clone returns a deep copy.
func (u *VarianceUncertainty) Clone() *VarianceUncertainty {
	if u == nil {
		return nil
	}
	return &VarianceUncertainty{stddev: u.stddev.Clone()}
}
