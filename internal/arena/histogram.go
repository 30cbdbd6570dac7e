package arena

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Bucket is a half-open value range [Low, High). The outermost buckets of an
// equal-width histogram use -Inf and +Inf so every value lands somewhere.
type Bucket struct {
	Low  float64
	High float64
}

func (b Bucket) Contains(v float64) bool {
	return v >= b.Low && v < b.High
}

func (b Bucket) String() string {
	return fmt.Sprintf("%s - %s", formatThreshold(b.Low), formatThreshold(b.High))
}

func formatThreshold(v float64) string {
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	if math.IsInf(v, 1) {
		return "Inf"
	}
	return fmt.Sprintf("%.2f", v)
}

// Histogram distributes values over ordered buckets. Bucketing is total:
// every input value is counted in exactly one bucket.
type Histogram struct {
	buckets []Bucket
	values  [][]float64
}

// NewHistogram bins values into the given buckets. Buckets must be ordered
// and contiguous; values falling outside every bucket are a fatal error in
// the caller's bucket choice, so the constructor panics on them.
func NewHistogram(buckets []Bucket, values []float64) *Histogram {
	h := &Histogram{
		buckets: slices.Clone(buckets),
		values:  make([][]float64, len(buckets)),
	}

	total := 0
	for i, b := range h.buckets {
		for _, v := range values {
			if b.Contains(v) {
				h.values[i] = append(h.values[i], v)
			}
		}
		total += len(h.values[i])
	}
	if total != len(values) {
		panic(fmt.Sprintf("histogram: %d of %d values fell outside all buckets", len(values)-total, len(values)))
	}
	return h
}

// NewEqualWidth builds n equal-width buckets spanning the observed value
// range, plus two open-ended buckets catching everything below and above.
// Values must be non-empty.
func NewEqualWidth(n int, values []float64) *Histogram {
	if len(values) == 0 {
		panic("histogram: no values")
	}

	lo := slices.Min(values)
	hi := slices.Max(values)
	if lo == hi {
		hi += 1e-5
	}
	step := (hi - lo) / float64(n)

	buckets := make([]Bucket, 0, n+2)
	buckets = append(buckets, Bucket{Low: math.Inf(-1), High: lo + step})
	edge := lo
	for i := 0; i < n; i++ {
		edge += step
		buckets = append(buckets, Bucket{Low: edge, High: edge + step})
	}
	buckets = append(buckets, Bucket{Low: edge + step, High: math.Inf(1)})

	return NewHistogram(buckets, values)
}

// NumBuckets reports the bucket count, open-ended buckets included.
func (h *Histogram) NumBuckets() int { return len(h.buckets) }

// BucketValues returns bucket i and the values binned into it.
func (h *Histogram) BucketValues(i int) (Bucket, []float64) {
	return h.buckets[i], h.values[i]
}

// RenderWithStarValue renders one line per bucket where each star stands
// for valueOfStar occupants. A non-empty bucket always shows at least one
// star so thin buckets stay visible.
func (h *Histogram) RenderWithStarValue(valueOfStar int) []string {
	lines := make([]string, 0, len(h.buckets)+1)
	for i, b := range h.buckets {
		var stars string
		if n := len(h.values[i]); n > 0 {
			stars = "*" + strings.Repeat("*", n/valueOfStar)
		}
		lines = append(lines, fmt.Sprintf("%20s:  %s", b.String(), stars))
	}
	if valueOfStar != 1 {
		lines = append(lines, fmt.Sprintf("Each * represents %d instances", valueOfStar))
	}
	return lines
}

// RenderWithMaxStars picks a star value so that no line exceeds maxStars
// stars, then renders like RenderWithStarValue.
func (h *Histogram) RenderWithMaxStars(maxStars int) []string {
	largest := 0
	for _, vs := range h.values {
		largest = max(largest, len(vs))
	}
	valueOfStar := int(math.Ceil(float64(largest) / float64(maxStars)))
	if valueOfStar < 1 {
		valueOfStar = 1
	}
	return h.RenderWithStarValue(valueOfStar)
}
