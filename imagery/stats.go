package imagery

import "math"

type BandStats struct {
	Band  string
	Valid int
	Total int
	Min   float64
	Max   float64
	Mean  float64
}

// Stats summarizes the valid pixels of every band, in band name order. Bands
// without valid pixels report NaN for min, max and mean.
func Stats(img *Image) []BandStats {
	var out []BandStats
	for _, name := range img.BandNames() {
		b := img.Bands[name]
		s := BandStats{Band: name, Total: len(b.Data), Min: math.Inf(1), Max: math.Inf(-1)}
		var sum float64
		for _, v := range b.Data {
			if IsNoData(v) {
				continue
			}
			s.Valid++
			sum += v
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		if s.Valid == 0 {
			s.Min, s.Max, s.Mean = NoData, NoData, NoData
		} else {
			s.Mean = sum / float64(s.Valid)
		}
		out = append(out, s)
	}
	return out
}
