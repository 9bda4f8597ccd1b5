package stats

import "math"

// Rational approximation coefficients for the inverse standard normal CDF
// (P. J. Acklam). Absolute error is below 1.15e-9 over (0, 1).
var (
	invA = [6]float64{
		-3.969683028665376e+01,
		2.209460984245205e+02,
		-2.759285104469687e+02,
		1.383577518672690e+02,
		-3.066479806614716e+01,
		2.506628277459239e+00,
	}
	invB = [5]float64{
		-5.447609879822406e+01,
		1.615858368580409e+02,
		-1.556989798598866e+02,
		6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	invC = [6]float64{
		-7.784894002430293e-03,
		-3.223964580411365e-01,
		-2.400758277161838e+00,
		-2.549732539343734e+00,
		4.374664141464968e+00,
		2.938163982698783e+00,
	}
	invD = [4]float64{
		7.784695709041462e-03,
		3.224671290700398e-01,
		2.445134137142996e+00,
		3.754408661907416e+00,
	}
)

const (
	pLow  = 0.02425
	pHigh = 1 - pLow
)

// InverseNormalCDF returns z such that the standard normal CDF at z equals p.
// It returns -Inf for p <= 0 and +Inf for p >= 1.
func InverseNormalCDF(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return math.NaN()
	case p <= 0:
		return math.Inf(-1)
	case p >= 1:
		return math.Inf(1)
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return tailQuantile(q)
	case p > pHigh:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -tailQuantile(q)
	default:
		q := p - 0.5
		r := q * q
		num := (((((invA[0]*r+invA[1])*r+invA[2])*r+invA[3])*r+invA[4])*r + invA[5]) * q
		den := ((((invB[0]*r+invB[1])*r+invB[2])*r+invB[3])*r+invB[4])*r + 1
		return num / den
	}
}

func tailQuantile(q float64) float64 {
	num := ((((invC[0]*q+invC[1])*q+invC[2])*q+invC[3])*q+invC[4])*q + invC[5]
	den := (((invD[0]*q+invD[1])*q+invD[2])*q+invD[3])*q + 1
	return num / den
}
