package analytics

import (
	"fmt"
	"math"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

const bucketCount = 10

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median expects values sorted ascending
func median(sorted []float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n%2 == 0:
		return (sorted[n/2-1] + sorted[n/2]) / 2
	default:
		return sorted[n/2]
	}
}

// sampleStdDev uses the n-1 divisor and is zero for fewer than two values
func sampleStdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	avg := mean(values)
	var sumSquares float64
	for _, v := range values {
		sumSquares += (v - avg) * (v - avg)
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// scoreBuckets splits [0,100] into ten equal ranges; 100 lands in the last one
func scoreBuckets(percentages []float64) []models.ScoreBucket {
	counts := make([]int, bucketCount)
	for _, pct := range percentages {
		idx := int(pct / 10)
		if pct >= 100 {
			idx = bucketCount - 1
		}
		idx = min(max(idx, 0), bucketCount-1)
		counts[idx]++
	}

	buckets := make([]models.ScoreBucket, bucketCount)
	for i := range buckets {
		start, end := i*10, (i+1)*10
		buckets[i] = models.ScoreBucket{
			RangeStart: float64(start),
			RangeEnd:   float64(end),
			Label:      fmt.Sprintf("%d-%d", start, end),
			Count:      counts[i],
		}
	}
	return buckets
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
