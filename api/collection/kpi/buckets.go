package kpi

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Bucket string

const (
	BucketCurrent Bucket = "CURRENT"
	Bucket1       Bucket = "BUCKET_1"
	Bucket2       Bucket = "BUCKET_2"
	Bucket3       Bucket = "BUCKET_3"
	Bucket4       Bucket = "BUCKET_4"
	Bucket5       Bucket = "BUCKET_5"
)

var bucketRank = map[string]int{
	string(BucketCurrent): 0,
	string(Bucket1):       1,
	string(Bucket2):       2,
	string(Bucket3):       3,
	string(Bucket4):       4,
	string(Bucket5):       5,
}

// DPDBucket classifies days past due. Upper bounds are inclusive.
func DPDBucket(dpd int) Bucket {
	switch {
	case dpd <= 0:
		return BucketCurrent
	case dpd <= 30:
		return Bucket1
	case dpd <= 60:
		return Bucket2
	case dpd <= 90:
		return Bucket3
	case dpd <= 180:
		return Bucket4
	default:
		return Bucket5
	}
}

type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

type BucketAmount struct {
	Bucket string  `json:"bucket"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// BucketCounts is the overview form: DPD-derived bucket, count only.
func BucketCounts(cases []CaseRow) []BucketCount {
	counts := map[string]int{}
	for _, c := range cases {
		counts[string(DPDBucket(c.DaysPastDue))]++
	}
	out := make([]BucketCount, 0, len(counts))
	for b, n := range counts {
		out = append(out, BucketCount{Bucket: b, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return bucketLess(out[i].Bucket, out[j].Bucket) })
	return out
}

// BucketDistribution sums count and outstanding per bucket. A bucket name
// stored on the case takes precedence over the DPD-derived one.
func BucketDistribution(cases []CaseRow) []BucketAmount {
	type acc struct {
		count  int
		amount decimal.Decimal
	}
	buckets := map[string]*acc{}
	for _, c := range cases {
		name := c.BucketName
		if name == "" {
			name = string(DPDBucket(c.DaysPastDue))
		}
		a, ok := buckets[name]
		if !ok {
			a = &acc{amount: decimal.Zero}
			buckets[name] = a
		}
		a.count++
		a.amount = a.amount.Add(decimal.NewFromFloat(c.TotalOutstanding))
	}
	out := make([]BucketAmount, 0, len(buckets))
	for name, a := range buckets {
		out = append(out, BucketAmount{Bucket: name, Count: a.count, Amount: a.amount.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return bucketLess(out[i].Bucket, out[j].Bucket) })
	return out
}

// bucketLess orders the DPD buckets first, then named buckets alphabetically.
func bucketLess(a, b string) bool {
	ra, okA := bucketRank[a]
	rb, okB := bucketRank[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA:
		return true
	case okB:
		return false
	}
	return a < b
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

func StatusDistribution(cases []CaseRow) []StatusCount {
	counts := map[string]int{}
	for _, c := range cases {
		counts[c.CaseStatus]++
	}
	out := make([]StatusCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, StatusCount{Status: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

// TotalOutstanding sums outstanding balances without float drift.
func TotalOutstanding(cases []CaseRow) float64 {
	sum := decimal.Zero
	for _, c := range cases {
		sum = sum.Add(decimal.NewFromFloat(c.TotalOutstanding))
	}
	return sum.InexactFloat64()
}

func CountStatus(cases []CaseRow, status string) int {
	n := 0
	for _, c := range cases {
		if c.CaseStatus == status {
			n++
		}
	}
	return n
}
