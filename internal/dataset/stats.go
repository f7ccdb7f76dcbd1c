package dataset

import "github.com/montanaflynn/stats"

// Thin wrappers over montanaflynn/stats that swallow the empty-input error;
// every caller here treats "no data" as zero.

func Mean(data []float64) float64 {
	v, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return v
}

func Median(data []float64) float64 {
	v, err := stats.Median(data)
	if err != nil {
		return 0
	}
	return v
}

func Min(data []float64) float64 {
	v, err := stats.Min(data)
	if err != nil {
		return 0
	}
	return v
}

func Max(data []float64) float64 {
	v, err := stats.Max(data)
	if err != nil {
		return 0
	}
	return v
}

// Quartiles returns the 25th, 50th and 75th percentiles.
func Quartiles(data []float64) (q1, q2, q3 float64) {
	q, err := stats.Quartile(data)
	if err != nil {
		return 0, 0, 0
	}
	return q.Q1, q.Q2, q.Q3
}

// Correlation returns the Pearson correlation coefficient of xs and ys,
// or 0 when it is undefined (mismatched lengths, constant input).
func Correlation(xs, ys []float64) float64 {
	v, err := stats.Correlation(xs, ys)
	if err != nil {
		return 0
	}
	return v
}
