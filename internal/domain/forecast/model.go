package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Model constants. Priors are expressed as normal scales and enter the
// normal equations as 1/scale² ridge penalties.
const (
	maxChangepoints       = 25
	changepointRange      = 0.8
	changepointPriorScale = 0.05
	seasonalityPriorScale = 10.0
	monthlyPeriodDays     = 30.5
	monthlyFourierOrder   = 5
	diagonalJitter        = 1e-9
	secondsPerDay         = 86400.0
)

// design describes the regressors of one fitted series.
type design struct {
	start        time.Time
	spanDays     float64
	changepoints []float64
	seasonality  bool
}

func (d design) width() int {
	w := 2 + len(d.changepoints)
	if d.seasonality {
		w += 2 * monthlyFourierOrder
	}
	return w
}

// scaledTime maps a timestamp onto [0,1] over the history window; future
// periods fall beyond 1.
func (d design) scaledTime(ts time.Time) float64 {
	return ts.Sub(d.start).Hours() / 24 / d.spanDays
}

// row fills the regressors for one timestamp: intercept, slope, one hinge
// per changepoint, then sin/cos pairs of the monthly cycle.
func (d design) row(ts time.Time, dst []float64) {
	t := d.scaledTime(ts)
	dst[0] = 1
	dst[1] = t
	for j, s := range d.changepoints {
		dst[2+j] = math.Max(0, t-s)
	}
	if !d.seasonality {
		return
	}
	days := float64(ts.Unix()) / secondsPerDay
	off := 2 + len(d.changepoints)
	for k := 1; k <= monthlyFourierOrder; k++ {
		x := 2 * math.Pi * float64(k) * days / monthlyPeriodDays
		dst[off+2*(k-1)] = math.Sin(x)
		dst[off+2*(k-1)+1] = math.Cos(x)
	}
}

func (d design) penalties() []float64 {
	p := make([]float64, d.width())
	for j := range d.changepoints {
		p[2+j] = 1 / (changepointPriorScale * changepointPriorScale)
	}
	if d.seasonality {
		for j := 2 + len(d.changepoints); j < len(p); j++ {
			p[j] = 1 / (seasonalityPriorScale * seasonalityPriorScale)
		}
	}
	return p
}

// placeChangepoints spreads candidate changepoints evenly over the first
// changepointRange of history, at observed timestamps, skipping the first.
func placeChangepoints(t []float64) []float64 {
	hist := int(math.Floor(float64(len(t)) * changepointRange))
	n := min(maxChangepoints, hist-1)
	if n < 1 {
		return nil
	}
	out := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(float64(i) * float64(hist-1) / float64(n)))
		out = append(out, t[idx])
	}
	return out
}

// fit is a solved penalised least-squares model on scaled targets.
type fit struct {
	design design
	beta   *mat.VecDense
	chol   *mat.Cholesky
	sigma  float64
	yScale float64
}

func fitSeries(times []time.Time, y []float64, seasonality bool) (*fit, error) {
	n := len(times)
	d := design{
		start:       times[0],
		spanDays:    times[n-1].Sub(times[0]).Hours() / 24,
		seasonality: seasonality,
	}
	t := make([]float64, n)
	for i, ts := range times {
		t[i] = d.scaledTime(ts)
	}
	d.changepoints = placeChangepoints(t)

	yScale := floats.Max(absAll(y))
	if yScale == 0 {
		yScale = 1
	}
	ys := make([]float64, n)
	floats.ScaleTo(ys, 1/yScale, y)

	p := d.width()
	x := mat.NewDense(n, p, nil)
	buf := make([]float64, p)
	for i, ts := range times {
		d.row(ts, buf)
		x.SetRow(i, buf)
	}

	// A = XᵀX + diag(penalty + jitter)
	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	for j, pen := range d.penalties() {
		xtx.SetSym(j, j, xtx.At(j, j)+pen+diagonalJitter)
	}
	chol := &mat.Cholesky{}
	if ok := chol.Factorize(&xtx); !ok {
		return nil, fmt.Errorf("%w: normal equations not positive definite", ErrFitFailed)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(n, ys))
	var beta mat.VecDense
	if err := solve(chol, &beta, &xty); err != nil {
		return nil, err
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	sse := 0.0
	for i := 0; i < n; i++ {
		r := ys[i] - fitted.AtVec(i)
		sse += r * r
	}
	dof := max(1, n-2)

	return &fit{
		design: d,
		beta:   &beta,
		chol:   chol,
		sigma:  math.Sqrt(sse / float64(dof)),
		yScale: yScale,
	}, nil
}

// predict returns the mean and standard deviation at ts in original units.
// The deviation combines residual noise with coefficient uncertainty.
func (f *fit) predict(ts time.Time) (mean, sd float64, err error) {
	row := make([]float64, f.design.width())
	f.design.row(ts, row)
	xv := mat.NewVecDense(len(row), row)

	mean = mat.Dot(xv, f.beta)
	var ax mat.VecDense
	if err = solve(f.chol, &ax, xv); err != nil {
		return 0, 0, err
	}
	variance := f.sigma * f.sigma * (1 + mat.Dot(xv, &ax))
	return mean * f.yScale, math.Sqrt(math.Max(0, variance)) * f.yScale, nil
}

// solve treats mat.Condition warnings as success.
func solve(chol *mat.Cholesky, dst *mat.VecDense, b mat.Vector) error {
	err := chol.SolveVecTo(dst, b)
	var cond mat.Condition
	if err != nil && !errors.As(err, &cond) {
		return fmt.Errorf("%w: %v", ErrFitFailed, err)
	}
	return nil
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}
