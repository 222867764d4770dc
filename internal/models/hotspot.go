package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Hotspot is a derived cluster of recent pins within one grid cell.
// Key is stable across recomputation for the same cell so consumers can
// keep marker identity between refreshes.
type Hotspot struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// CellKey buckets a coordinate into the grid. Each axis is floored
// independently, so cells are half-open [k*cellSize, (k+1)*cellSize).
func CellKey(lat, lng, cellSize float64) string {
	cx := int64(math.Floor(lat / cellSize))
	cy := int64(math.Floor(lng / cellSize))
	return fmt.Sprintf("c%d:%d", cx, cy)
}

type cellAccum struct {
	key    string
	count  int
	sumLat float64
	sumLng float64
}

// ComputeHotspots buckets posts created within the window into the grid and
// returns up to topN cells ranked by descending count. The centroid is the
// arithmetic mean of the contributing posts' coordinates, not the cell
// center. Equal counts break ties by grid key ascending.
func ComputeHotspots(posts []*PostRecord, now time.Time, window time.Duration, cellSize float64, topN int) []Hotspot {
	if len(posts) == 0 || cellSize <= 0 || topN <= 0 {
		return nil
	}

	cutoff := now.Add(-window)
	cells := make(map[string]*cellAccum)
	for _, p := range posts {
		if p == nil || p.CreatedAt.Before(cutoff) {
			continue
		}
		key := CellKey(p.Lat, p.Lng, cellSize)
		acc, ok := cells[key]
		if !ok {
			acc = &cellAccum{key: key}
			cells[key] = acc
		}
		acc.count++
		acc.sumLat += p.Lat
		acc.sumLng += p.Lng
	}
	if len(cells) == 0 {
		return nil
	}

	ranked := make([]*cellAccum, 0, len(cells))
	for _, acc := range cells {
		ranked = append(ranked, acc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	out := make([]Hotspot, len(ranked))
	for i, acc := range ranked {
		out[i] = Hotspot{
			Key:   acc.key,
			Count: acc.count,
			Lat:   acc.sumLat / float64(acc.count),
			Lng:   acc.sumLng / float64(acc.count),
		}
	}
	return out
}
