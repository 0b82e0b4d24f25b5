package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// pearson returns |r| over rows where both x and y are finite. Fewer than two
// complete pairs or a constant side yields 0.
func pearson(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if finite(x[i]) && finite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if !finite(r) {
		return 0
	}
	return math.Abs(r)
}

// correlationRatio returns eta: the share of the variance of values explained
// by the grouping labels. Rows with an empty label or non-finite value are
// skipped.
func correlationRatio(labels []string, values []float64) float64 {
	groups := make(map[string][]float64)
	var all []float64
	for i, l := range labels {
		if l == "" || !finite(values[i]) {
			continue
		}
		groups[l] = append(groups[l], values[i])
		all = append(all, values[i])
	}
	if len(all) < 2 || len(groups) < 2 {
		return 0
	}
	mean := stat.Mean(all, nil)
	var total, between float64
	for _, v := range all {
		total += (v - mean) * (v - mean)
	}
	if total == 0 {
		return 0
	}
	for _, g := range groups {
		gm := stat.Mean(g, nil)
		between += float64(len(g)) * (gm - mean) * (gm - mean)
	}
	return math.Sqrt(between / total)
}

// cramersV measures association between two label sequences from the
// chi-square statistic of their contingency table.
func cramersV(a, b []string) float64 {
	rows := make(map[string]int)
	cols := make(map[string]int)
	type cell struct{ r, c string }
	counts := make(map[cell]float64)
	n := 0.0
	for i := range a {
		if a[i] == "" || b[i] == "" {
			continue
		}
		rows[a[i]]++
		cols[b[i]]++
		counts[cell{a[i], b[i]}]++
		n++
	}
	k := min(len(rows), len(cols))
	if n == 0 || k < 2 {
		return 0
	}
	obs := make([]float64, 0, len(rows)*len(cols))
	exp := make([]float64, 0, len(rows)*len(cols))
	for r, rn := range rows {
		for c, cn := range cols {
			obs = append(obs, counts[cell{r, c}])
			exp = append(exp, float64(rn)*float64(cn)/n)
		}
	}
	chi2 := stat.ChiSquare(obs, exp)
	v := math.Sqrt(chi2 / (n * float64(k-1)))
	if !finite(v) {
		return 0
	}
	return math.Min(v, 1)
}

// kde evaluates a Gaussian kernel density estimate (Silverman bandwidth) at
// points evenly spaced across the data range padded by three bandwidths.
func kde(values []float64, points int) (xs, ys []float64) {
	if len(values) == 0 || points < 2 {
		return nil, nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	_, sd := stat.MeanStdDev(sorted, nil)
	h := 1.06 * sd * math.Pow(float64(len(sorted)), -0.2)
	if !finite(h) || h == 0 {
		h = math.Max(math.Abs(sorted[0])*0.1, 1)
	}
	lo, hi := sorted[0]-3*h, sorted[len(sorted)-1]+3*h
	step := (hi - lo) / float64(points-1)
	norm := 1 / (float64(len(sorted)) * h * math.Sqrt(2*math.Pi))
	xs = make([]float64, points)
	ys = make([]float64, points)
	for i := range xs {
		x := lo + float64(i)*step
		var sum float64
		for _, v := range sorted {
			u := (x - v) / h
			sum += math.Exp(-0.5 * u * u)
		}
		xs[i], ys[i] = x, sum*norm
	}
	return xs, ys
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
