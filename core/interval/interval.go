// Package interval provides the half-open time-interval primitives the
// scheduling engine is built on. Intervals are [Start, End): touching
// endpoints do not overlap.
package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the interval contains no time.
func (iv Interval) Empty() bool { return !iv.Start.Before(iv.End) }

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any time.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Overlaps reports whether the two intervals share any time.
func (iv Interval) Overlaps(other Interval) bool {
	return Overlaps(iv.Start, iv.End, other.Start, other.End)
}

// Contains reports whether the interval fully contains [start, end).
func (iv Interval) Contains(start, end time.Time) bool {
	return !iv.Start.After(start) && !iv.End.Before(end)
}

// Subtract returns the portions of iv outside cutter: zero results when
// cutter fully contains iv, one when it clips an edge, two when it punches
// a hole in the middle.
func Subtract(iv, cutter Interval) []Interval {
	if !iv.Overlaps(cutter) {
		return []Interval{iv}
	}
	var out []Interval
	if iv.Start.Before(cutter.Start) {
		out = append(out, Interval{Start: iv.Start, End: cutter.Start})
	}
	if iv.End.After(cutter.End) {
		out = append(out, Interval{Start: cutter.End, End: iv.End})
	}
	return out
}

// SubtractAll removes every cutter from iv in sequence. Cutters are merged
// first so the result is independent of their order even when they overlap
// one another.
func SubtractAll(iv Interval, cutters []Interval) []Interval {
	remaining := []Interval{iv}
	for _, c := range Merge(cutters) {
		var next []Interval
		for _, seg := range remaining {
			next = append(next, Subtract(seg, c)...)
		}
		remaining = next
	}
	return remaining
}

// Merge sorts the intervals and coalesces overlapping or touching ones,
// dropping empty inputs. The result is the minimal sorted disjoint cover.
func Merge(ivs []Interval) []Interval {
	var sorted []Interval
	for _, iv := range ivs {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var out []Interval
	for _, iv := range sorted {
		if len(out) > 0 && !out[len(out)-1].End.Before(iv.Start) {
			last := &out[len(out)-1]
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
