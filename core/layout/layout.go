// Package layout clusters time-overlapping bookings and assigns each one a
// horizontal slot so concurrent bookings never render on top of each other.
// Positions are percentages of the day column; everything is recomputed on
// every read.
package layout

import (
	"sort"

	"github.com/rvadriving/scheduler/core/model"
)

// Level describes one tier of lane grouping. Key extracts the lane key of a
// booking (empty string means unassigned at this level); Seeds are lane keys
// that reserve space even when no booking lands in them, in display order.
type Level struct {
	Key   func(model.Booking) string
	Seeds []string
}

// Lane is the resolved geometry of one lane. Sub is populated for the
// unassigned lane when a further grouping level subdivides it.
type Lane struct {
	Key   string  `json:"key"`
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
	Sub   []Lane  `json:"sub,omitempty"`
}

// Result carries the per-booking slot assignments together with the lane
// geometry, which the caller reuses to position availability strips.
type Result struct {
	Assignments []model.LaneAssignment `json:"assignments"`
	Lanes       []Lane                 `json:"lanes"`
}

// ResolveOverlaps performs flat clustering over the full column width:
// bookings are sorted by start time, grouped into maximal overlap clusters,
// and members of a cluster split the width equally in sort order.
func ResolveOverlaps(bookings []model.Booking) []model.LaneAssignment {
	return resolveFlat(bookings, 0, 100)
}

// Resolve partitions bookings into lanes level by level. Each level's
// unassigned remainder is handed to the next level, rescaled into the
// unassigned lane's geometry; the final remainder falls back to flat
// clustering. Lane order and slot order are deterministic for fixed input.
func Resolve(bookings []model.Booking, levels []Level) Result {
	return resolveLanes(bookings, levels, 0, 100)
}

func resolveLanes(bookings []model.Booking, levels []Level, left, width float64) Result {
	if len(levels) == 0 {
		return Result{Assignments: resolveFlat(bookings, left, width)}
	}
	level := levels[0]

	byKey := make(map[string][]model.Booking)
	for _, b := range bookings {
		byKey[level.Key(b)] = append(byKey[level.Key(b)], b)
	}

	keys := laneKeys(level.Seeds, byKey)
	needUnassigned := len(byKey[""]) > 0 || nestedSeeds(levels[1:])
	laneCount := len(keys)
	if needUnassigned {
		laneCount++
	}
	if laneCount == 0 {
		return Result{}
	}

	laneWidth := width / float64(laneCount)
	var res Result
	for i, key := range keys {
		laneLeft := left + float64(i)*laneWidth
		res.Lanes = append(res.Lanes, Lane{Key: key, Left: laneLeft, Width: laneWidth})
		res.Assignments = append(res.Assignments, resolveFlat(byKey[key], laneLeft, laneWidth)...)
	}

	if needUnassigned {
		laneLeft := left + float64(len(keys))*laneWidth
		lane := Lane{Key: "", Left: laneLeft, Width: laneWidth}
		sub := resolveLanes(byKey[""], levels[1:], laneLeft, laneWidth)
		lane.Sub = sub.Lanes
		res.Lanes = append(res.Lanes, lane)
		res.Assignments = append(res.Assignments, sub.Assignments...)
	}
	return res
}

// laneKeys returns seed keys in their given order followed by any observed
// keys the seeds did not name, sorted for stable re-renders. The empty key
// is the unassigned remainder and is handled separately.
func laneKeys(seeds []string, byKey map[string][]model.Booking) []string {
	seen := make(map[string]bool, len(seeds))
	keys := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		keys = append(keys, s)
	}
	var extra []string
	for k := range byKey {
		if k != "" && !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func nestedSeeds(levels []Level) bool {
	for _, l := range levels {
		if len(l.Seeds) > 0 {
			return true
		}
	}
	return false
}

// resolveFlat walks bookings in start order keeping a running cluster end;
// a booking starting strictly before that end joins the cluster and may
// extend it, otherwise it starts a new cluster. Cluster members split the
// given width equally.
func resolveFlat(bookings []model.Booking, left, width float64) []model.LaneAssignment {
	if len(bookings) == 0 {
		return nil
	}
	sorted := make([]model.Booking, len(bookings))
	copy(sorted, bookings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var out []model.LaneAssignment
	cluster := []model.Booking{sorted[0]}
	clusterEnd := sorted[0].End()
	flush := func() {
		w := width / float64(len(cluster))
		for i, b := range cluster {
			out = append(out, model.LaneAssignment{
				ItemID: b.ID,
				Left:   left + float64(i)*w,
				Width:  w,
			})
		}
	}
	for _, b := range sorted[1:] {
		if b.Start.Before(clusterEnd) {
			cluster = append(cluster, b)
			if end := b.End(); end.After(clusterEnd) {
				clusterEnd = end
			}
			continue
		}
		flush()
		cluster = []model.Booking{b}
		clusterEnd = b.End()
	}
	flush()
	return out
}
