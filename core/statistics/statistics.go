package statistics

import (
	"math"
	"sort"
)

// Result represents the outcome of a statistical calculation
type Result struct {
	Samples           int             `json:"samples"`
	Min               int             `json:"min"`
	Max               int             `json:"max"`
	Mean              float64         `json:"mean"`
	Variance          float64         `json:"variance"`
	StandardDeviation float64         `json:"standardDeviation"`
	Skewness          float64         `json:"skewness"`
	Kurtosis          float64         `json:"kurtosis"`
	Percentiles       map[int]float64 `json:"percentiles"`
}

// Calculate computes statistical measures for a given set of integers. It
// sorts data in place and returns nil for an empty sample.
func Calculate(data []int) *Result {
	if len(data) == 0 {
		return nil
	}
	sort.Ints(data)
	n := float64(len(data))

	min := data[0]
	max := data[len(data)-1]
	sum := 0
	for _, v := range data {
		sum += v
	}
	mean := float64(sum) / n

	// Calculate variance and higher moments
	m2 := 0.0
	m3 := 0.0
	m4 := 0.0
	for _, v := range data {
		diff := float64(v) - mean
		m2 += diff * diff
		m3 += diff * diff * diff
		m4 += diff * diff * diff * diff
	}
	variance := m2 / n
	stdDev := math.Sqrt(variance)

	// A constant sample has no shape; leave skewness and kurtosis at zero.
	skewness, kurtosis := 0.0, 0.0
	if variance > 0 {
		skewness = (m3 / n) / math.Pow(stdDev, 3)
		kurtosis = (m4/n)/math.Pow(variance, 2) - 3 // Excess kurtosis
	}

	percentiles := map[int]float64{
		0:   float64(min),
		5:   percentile(data, 5),
		10:  percentile(data, 10),
		25:  percentile(data, 25),
		50:  percentile(data, 50),
		75:  percentile(data, 75),
		90:  percentile(data, 90),
		95:  percentile(data, 95),
		100: float64(max),
	}

	return &Result{
		Samples:           len(data),
		Min:               min,
		Max:               max,
		Mean:              round(mean, 2),
		Variance:          round(variance, 2),
		StandardDeviation: round(stdDev, 2),
		Skewness:          round(skewness, 2),
		Kurtosis:          round(kurtosis, 2),
		Percentiles:       roundMap(percentiles, 2),
	}
}

func percentile(data []int, p int) float64 {
	index := float64(len(data)-1) * float64(p) / 100
	i := int(index)
	if i == len(data)-1 {
		return float64(data[i])
	}
	return float64(data[i]) + (float64(data[i+1])-float64(data[i]))*(index-float64(i))
}

func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}

func roundMap(m map[int]float64, places int) map[int]float64 {
	rounded := make(map[int]float64, len(m))
	for k, v := range m {
		rounded[k] = round(v, places)
	}
	return rounded
}
