package sample

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/hydrocal/internal/problem"
)

// TruncatedNormal is a normal distribution restricted to [Low, High] and
// renormalised to integrate to one over that interval.
//
// Draws use the inverse CDF on the restricted probability range, so no value
// is ever clamped. When the whole interval lies above the mean, sampling runs
// on the mirrored interval to keep the CDF in its precise lower tail.
type TruncatedNormal struct {
	Mu, Sigma float64
	Low, High float64

	std     distuv.Normal // standard normal
	src     rand.Source
	mirror  bool
	a, b    float64 // standardized bounds, mirrored if needed
	cdfA    float64
	cdfB    float64
	logMass float64
}

// NewTruncatedNormal builds the distribution N(mu, sigma²) truncated to
// [low, high].
func NewTruncatedNormal(mu, sigma, low, high float64, src rand.Source) (*TruncatedNormal, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, &problem.ConfigError{Field: "coef_std", Reason: fmt.Sprintf("standard deviation must be positive and finite, got %g", sigma)}
	}
	if !(low < high) {
		return nil, &problem.ConfigError{Field: "bounds", Reason: fmt.Sprintf("low must be lower than high, got [%g, %g]", low, high)}
	}

	tn := &TruncatedNormal{
		Mu: mu, Sigma: sigma, Low: low, High: high,
		std: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		src: src,
	}

	a := (low - mu) / sigma
	b := (high - mu) / sigma
	if a > 0 {
		tn.mirror = true
		a, b = -b, -a
	}
	tn.a, tn.b = a, b
	tn.cdfA = tn.std.CDF(a)
	tn.cdfB = tn.std.CDF(b)

	mass := tn.cdfB - tn.cdfA
	if !(mass > 0) {
		return nil, &problem.ConfigError{
			Field:  "mean",
			Reason: fmt.Sprintf("normal distribution with mean %g and std %g has no mass in [%g, %g]", mu, sigma, low, high),
		}
	}
	tn.logMass = math.Log(mass)
	return tn, nil
}

// Rand draws one value. It fails only if rounding keeps producing values
// outside the interval, which signals a degenerate configuration.
func (tn *TruncatedNormal) Rand() (float64, error) {
	u := distuv.Uniform{Min: tn.cdfA, Max: tn.cdfB, Src: tn.src}
	for range maxRejections {
		p := u.Rand()
		if p <= 0 || p >= 1 {
			continue
		}
		z := tn.std.Quantile(p)
		if tn.mirror {
			z = -z
		}
		x := tn.Mu + tn.Sigma*z
		if x >= tn.Low && x <= tn.High {
			return x, nil
		}
	}
	return 0, fmt.Errorf("truncated normal draw rejected %d times in [%g, %g]", maxRejections, tn.Low, tn.High)
}

// Prob returns the truncated density at x, zero outside [Low, High].
func (tn *TruncatedNormal) Prob(x float64) float64 {
	if x < tn.Low || x > tn.High {
		return 0
	}
	return math.Exp(tn.LogProb(x))
}

// LogProb returns the log of the truncated density at x.
func (tn *TruncatedNormal) LogProb(x float64) float64 {
	if x < tn.Low || x > tn.High {
		return math.Inf(-1)
	}
	z := (x - tn.Mu) / tn.Sigma
	return tn.std.LogProb(z) - math.Log(tn.Sigma) - tn.logMass
}

// CDF returns P(X <= x).
func (tn *TruncatedNormal) CDF(x float64) float64 {
	switch {
	case x <= tn.Low:
		return 0
	case x >= tn.High:
		return 1
	}
	z := (x - tn.Mu) / tn.Sigma
	mass := tn.cdfB - tn.cdfA
	if tn.mirror {
		return (tn.cdfB - tn.std.CDF(-z)) / mass
	}
	return (tn.std.CDF(z) - tn.cdfA) / mass
}
