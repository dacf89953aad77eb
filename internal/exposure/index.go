package exposure

import (
	"math"
	"sort"

	"github.com/cctv-aware/exposure/internal/camera"
	"github.com/cctv-aware/exposure/internal/geo"
)

// metersPerDegLat is the span of one degree of latitude on the reference
// sphere, used to size grid cells.
const metersPerDegLat = 111319.0

// indexMarginM pads the search radius so range-boundary points can never be
// lost to cell quantisation.
const indexMarginM = 5.0

// gridIndex buckets cameras by rounded latitude/longitude so each sample only
// tests cameras within reach. It is a pure pre-filter: every camera that
// could possibly see a point is among the visited candidates, so filtered and
// unfiltered evaluation produce identical results.
type gridIndex struct {
	cellDeg float64
	cells   map[[2]int][]int
	nCams   int
	// always holds cameras the grid cannot bound: unlimited range.
	always []int
}

// newGridIndex builds the index for a camera set. With no finite-range
// cameras every camera lands in always and the index degenerates to the
// naive scan.
func newGridIndex(cams *camera.Set) *gridIndex {
	maxRange, _ := cams.MaxRangeM()
	reach := maxRange + indexMarginM

	idx := &gridIndex{
		// One cell per reach radius keeps the candidate neighbourhood at
		// 3x3 cells in the common case.
		cellDeg: reach / metersPerDegLat,
		cells:   make(map[[2]int][]int),
		nCams:   cams.Len(),
	}

	for i, c := range cams.Cameras() {
		if math.IsInf(c.RangeM, 1) {
			idx.always = append(idx.always, i)
			continue
		}
		// Longitude cells do not wrap, so a camera is also filed under its
		// +-360 degree aliases; a neighbourhood probe on the far side of the
		// antimeridian then still reaches it. visitCandidates dedupes.
		for _, lon := range []float64{c.Pos.Lon, c.Pos.Lon - 360, c.Pos.Lon + 360} {
			cell := idx.cellOf(c.Pos.Lat, lon)
			idx.cells[cell] = append(idx.cells[cell], i)
		}
	}
	return idx
}

func (g *gridIndex) cellOf(lat, lon float64) [2]int {
	return [2]int{
		int(math.Floor(lat / g.cellDeg)),
		int(math.Floor(lon / g.cellDeg)),
	}
}

// visitCandidates calls visit with the set index of every camera that could
// possibly observe p, in ascending camera order so the filtered path yields
// exactly the naive path's output order. Longitude degrees shrink with
// latitude, so the longitudinal neighbourhood widens by 1/cos(lat).
func (g *gridIndex) visitCandidates(p geo.Point, visit func(int)) {
	cosLat := math.Cos(p.Lat * math.Pi / 180)
	if cosLat <= 1e-3 {
		// Degenerate near the poles: fall back to the full scan rather
		// than risk missing a camera.
		for i := 0; i < g.nCams; i++ {
			visit(i)
		}
		return
	}
	latSpan := 1
	lonSpan := int(math.Ceil(1/cosLat)) + 1

	center := g.cellOf(p.Lat, p.Lon)
	candidates := append([]int(nil), g.always...)
	for dLat := -latSpan; dLat <= latSpan; dLat++ {
		for dLon := -lonSpan; dLon <= lonSpan; dLon++ {
			cell := [2]int{center[0] + dLat, center[1] + dLon}
			candidates = append(candidates, g.cells[cell]...)
		}
	}
	sort.Ints(candidates)
	// The alias cells can list a camera twice when cells are wide; each
	// camera must still be visited exactly once.
	prev := -1
	for _, i := range candidates {
		if i == prev {
			continue
		}
		prev = i
		visit(i)
	}
}
