package loom

import (
	"fmt"
	"strconv"
	"strings"
)

// TrackKind selects how a grid track is sized.
type TrackKind uint8

const (
	TrackFixed TrackKind = iota // fixed cell count
	TrackFr                     // fraction of the remaining space
	TrackAuto                   // sized to the largest item in the track
)

// Track is one column or row definition.
type Track struct {
	Kind  TrackKind
	Value int // cells for fixed, weight for fr
}

// Fixed returns a fixed-size track.
func Fixed(n int) Track { return Track{Kind: TrackFixed, Value: n} }

// Fr returns a fractional track with the given weight.
func Fr(weight int) Track { return Track{Kind: TrackFr, Value: weight} }

// AutoTrack returns a content-sized track.
func AutoTrack() Track { return Track{Kind: TrackAuto} }

// ParseTrack parses a single track spec: "12", "2fr" or "auto".
func ParseTrack(spec string) (Track, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "auto":
		return AutoTrack(), nil
	case strings.HasSuffix(spec, "fr"):
		w, err := strconv.Atoi(strings.TrimSuffix(spec, "fr"))
		if err != nil || w <= 0 {
			return Track{}, fmt.Errorf("parse track %q: invalid fr weight", spec)
		}
		return Fr(w), nil
	default:
		n, err := strconv.Atoi(spec)
		if err != nil || n < 0 {
			return Track{}, fmt.Errorf("parse track %q: invalid size", spec)
		}
		return Fixed(n), nil
	}
}

// ParseTracks parses a whitespace-separated track list like "1fr 2fr auto 10".
func ParseTracks(spec string) ([]Track, error) {
	fields := strings.Fields(spec)
	tracks := make([]Track, 0, len(fields))
	for _, f := range fields {
		t, err := ParseTrack(f)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// gridSpan is an explicit "start / end" placement, 1-based track lines as
// in CSS grid: "1 / 3" covers tracks 1 and 2.
type gridSpan struct {
	set        bool
	start, end int
}

// parseGridSpan parses a "start / end" placement string. An empty string
// yields an unset span. A bare "n" spans a single track.
func parseGridSpan(spec string) (gridSpan, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return gridSpan{}, nil
	}
	parts := strings.Split(spec, "/")
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || start < 1 {
		return gridSpan{}, fmt.Errorf("parse grid span %q: invalid start line", spec)
	}
	end := start + 1
	if len(parts) > 1 {
		end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || end <= start {
			return gridSpan{}, fmt.Errorf("parse grid span %q: invalid end line", spec)
		}
	}
	return gridSpan{set: true, start: start, end: end}, nil
}

// gridItem is one child presented to the grid engine: its natural outer
// size and optional explicit placement.
type gridItem struct {
	w, h     int
	col, row gridSpan
}

// resolveTracks converts track definitions to cell sizes. Fixed tracks take
// their size, auto tracks their content size, and fr tracks split whatever
// remains after fixed/auto sizes and gaps are subtracted, proportionally to
// their weights.
func resolveTracks(tracks []Track, autoSizes []int, available, gap int) []int {
	sizes := make([]int, len(tracks))
	used := 0
	totalFr := 0
	for i, tr := range tracks {
		switch tr.Kind {
		case TrackFixed:
			sizes[i] = tr.Value
			used += tr.Value
		case TrackAuto:
			sizes[i] = autoSizes[i]
			used += autoSizes[i]
		case TrackFr:
			totalFr += tr.Value
		}
	}
	if len(tracks) > 1 {
		used += gap * (len(tracks) - 1)
	}
	remaining := available - used
	if remaining < 0 {
		remaining = 0
	}
	if totalFr > 0 {
		for i, tr := range tracks {
			if tr.Kind == TrackFr {
				sizes[i] = remaining * tr.Value / totalFr
			}
		}
	}
	return sizes
}

// gridPlace computes margin-box rectangles for items inside the content
// rectangle. Explicitly spanned items reserve their cells first and are
// excluded from auto-flow; the rest fill row-major, extending the grid with
// implicit auto rows as needed. Items stretch to fill their cell span.
func gridPlace(content Rect, cols, rows []Track, gap int, items []gridItem) []Rect {
	if len(items) == 0 {
		return nil
	}
	if len(cols) == 0 {
		cols = []Track{Fr(1)}
	}
	nCols := len(cols)

	// Start from the declared rows, extended to any explicit placement
	// that reaches past them. Auto-flow grows the grid further as needed.
	nRows := len(rows)
	for _, it := range items {
		if it.row.set && it.row.end-1 > nRows {
			nRows = it.row.end - 1
		}
	}
	if nRows == 0 {
		nRows = 1
	}

	occupied := make([]bool, nCols*nRows)
	occupy := func(c, r int) {
		if c >= 0 && c < nCols && r >= 0 && r < nRows {
			occupied[r*nCols+c] = true
		}
	}

	// Cell assignment per item: column and row index ranges [start, end).
	type cellSpan struct{ c0, c1, r0, r1 int }
	spans := make([]cellSpan, len(items))

	// Pass 1: reserve explicit placements.
	for i, it := range items {
		if !it.col.set && !it.row.set {
			continue
		}
		cs := cellSpan{c0: 0, c1: 1, r0: 0, r1: 1}
		if it.col.set {
			cs.c0, cs.c1 = it.col.start-1, it.col.end-1
		}
		if it.row.set {
			cs.r0, cs.r1 = it.row.start-1, it.row.end-1
		}
		// Column lines past the declared tracks clamp to the last column.
		// Rows were already extended to cover every explicit span above.
		if cs.c0 >= nCols {
			cs.c0 = nCols - 1
		}
		if cs.c1 > nCols {
			cs.c1 = nCols
		}
		if cs.c1 <= cs.c0 {
			cs.c1 = cs.c0 + 1
		}
		if cs.r1 > nRows {
			cs.r1 = nRows
		}
		spans[i] = cs
		for r := cs.r0; r < cs.r1; r++ {
			for c := cs.c0; c < cs.c1; c++ {
				occupy(c, r)
			}
		}
	}

	// Pass 2: auto-flow the rest, row-major, adding implicit rows when
	// every remaining cell is reserved.
	cursor := 0
	for i, it := range items {
		if it.col.set || it.row.set {
			continue
		}
		for cursor < nCols*nRows && occupied[cursor] {
			cursor++
		}
		if cursor >= nCols*nRows {
			nRows++
			occupied = append(occupied, make([]bool, nCols)...)
		}
		c, r := cursor%nCols, cursor/nCols
		spans[i] = cellSpan{c0: c, c1: c + 1, r0: r, r1: r + 1}
		occupy(c, r)
	}

	allRows := make([]Track, nRows)
	copy(allRows, rows)
	for i := len(rows); i < nRows; i++ {
		allRows[i] = AutoTrack()
	}

	// Auto track sizes from single-cell items.
	autoCols := make([]int, nCols)
	autoRows := make([]int, nRows)
	for i, it := range items {
		cs := spans[i]
		if cs.c1-cs.c0 == 1 && cs.c0 < nCols && it.w > autoCols[cs.c0] {
			autoCols[cs.c0] = it.w
		}
		if cs.r1-cs.r0 == 1 && cs.r0 < nRows && it.h > autoRows[cs.r0] {
			autoRows[cs.r0] = it.h
		}
	}

	colSizes := resolveTracks(cols, autoCols, content.W, gap)
	rowSizes := resolveTracks(allRows, autoRows, content.H, gap)

	// Track start offsets.
	colOff := make([]int, nCols+1)
	for i := 0; i < nCols; i++ {
		colOff[i+1] = colOff[i] + colSizes[i] + gap
	}
	rowOff := make([]int, nRows+1)
	for i := 0; i < nRows; i++ {
		rowOff[i+1] = rowOff[i] + rowSizes[i] + gap
	}

	out := make([]Rect, len(items))
	for i := range items {
		cs := spans[i]
		x := content.X + colOff[cs.c0]
		y := content.Y + rowOff[cs.r0]
		w := colOff[cs.c1] - colOff[cs.c0] - gap
		h := rowOff[cs.r1] - rowOff[cs.r0] - gap
		out[i] = Rect{X: x, Y: y, W: max(0, w), H: max(0, h)}
	}
	return out
}
