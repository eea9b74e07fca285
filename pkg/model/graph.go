package model

import "time"

// Bucket is the effective status used for column grouping.
type Bucket int

const (
	BucketOpen Bucket = iota
	BucketInProgress
	BucketBlocked
	BucketClosed
)

// BucketCount is the number of buckets.
const BucketCount = 4

// Buckets lists buckets in column order.
var Buckets = [BucketCount]Bucket{BucketOpen, BucketInProgress, BucketBlocked, BucketClosed}

// Status returns the status that names the bucket.
func (b Bucket) Status() Status {
	switch b {
	case BucketInProgress:
		return StatusInProgress
	case BucketBlocked:
		return StatusBlocked
	case BucketClosed:
		return StatusClosed
	default:
		return StatusOpen
	}
}

func (b Bucket) String() string {
	return string(b.Status())
}

// BucketForStatus maps a raw status onto its bucket. Statuses outside the
// four known values land in the open bucket.
func BucketForStatus(s Status) Bucket {
	switch s {
	case StatusInProgress:
		return BucketInProgress
	case StatusBlocked:
		return BucketBlocked
	case StatusClosed:
		return BucketClosed
	default:
		return BucketOpen
	}
}

// Stats partitions the issue set by effective status.
type Stats struct {
	Total      int
	Open       int
	InProgress int
	Blocked    int
	Closed     int
}

// Count returns the size of one bucket.
func (s Stats) Count(b Bucket) int {
	switch b {
	case BucketOpen:
		return s.Open
	case BucketInProgress:
		return s.InProgress
	case BucketBlocked:
		return s.Blocked
	case BucketClosed:
		return s.Closed
	}
	return 0
}

// Graph is the enriched, bucketed view of one snapshot. A Graph is
// immutable once built; reloads produce a new one.
type Graph struct {
	// Issues in load order.
	Issues []*Issue
	ByID   map[string]*Issue
	// Buckets holds each bucket sorted by the loader's comparator.
	Buckets  [BucketCount][]*Issue
	Stats    Stats
	Source   string
	LoadedAt time.Time
}

// Issue returns the issue with id, or nil.
func (g *Graph) Issue(id string) *Issue {
	if g == nil {
		return nil
	}
	return g.ByID[id]
}

// Len returns the number of issues.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Issues)
}

// Bucket returns the sorted issues of bucket b.
func (g *Graph) Bucket(b Bucket) []*Issue {
	if g == nil || b < 0 || int(b) >= BucketCount {
		return nil
	}
	return g.Buckets[b]
}
