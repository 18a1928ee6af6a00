package metrics

import (
	"math"

	"github.com/sells-group/plantwatch/internal/model"
)

// DowntimeBucket names one downtime range.
type DowntimeBucket string

const (
	BucketLow      DowntimeBucket = "low"
	BucketMedium   DowntimeBucket = "medium"
	BucketHigh     DowntimeBucket = "high"
	BucketCritical DowntimeBucket = "critical"
)

// bucketBounds holds inclusive upper bounds in hours, ordered low to critical.
var bucketBounds = []struct {
	bucket DowntimeBucket
	upper  float64
}{
	{BucketLow, 10},
	{BucketMedium, 30},
	{BucketHigh, 50},
	{BucketCritical, math.Inf(1)},
}

// DowntimeDistribution counts records per downtime bucket.
type DowntimeDistribution struct {
	Low      int `json:"low" yaml:"low"`
	Medium   int `json:"medium" yaml:"medium"`
	High     int `json:"high" yaml:"high"`
	Critical int `json:"critical" yaml:"critical"`
}

// BucketCount pairs a bucket with its count.
type BucketCount struct {
	Bucket DowntimeBucket `json:"bucket" yaml:"bucket"`
	Count  int            `json:"count" yaml:"count"`
}

// Total returns the number of records counted.
func (d DowntimeDistribution) Total() int {
	return d.Low + d.Medium + d.High + d.Critical
}

// Buckets returns the counts in fixed low-to-critical order.
func (d DowntimeDistribution) Buckets() []BucketCount {
	return []BucketCount{
		{BucketLow, d.Low},
		{BucketMedium, d.Medium},
		{BucketHigh, d.High},
		{BucketCritical, d.Critical},
	}
}

// ClassifyDowntime returns the bucket for a downtime value. A value equal to a
// bucket's upper bound belongs to that bucket.
func ClassifyDowntime(hours float64) DowntimeBucket {
	for _, b := range bucketBounds {
		if hours <= b.upper {
			return b.bucket
		}
	}
	// NaN compares false everywhere; keep it counted rather than dropped.
	return BucketCritical
}

// BucketDowntime places every record in exactly one bucket. An empty input
// yields all-zero counts.
func BucketDowntime(records []model.ProductionRecord) DowntimeDistribution {
	var d DowntimeDistribution
	for _, r := range records {
		switch ClassifyDowntime(r.Downtime) {
		case BucketLow:
			d.Low++
		case BucketMedium:
			d.Medium++
		case BucketHigh:
			d.High++
		default:
			d.Critical++
		}
	}
	return d
}
