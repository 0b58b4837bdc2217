package filter

import (
	"picedit/raster"

	"gonum.org/v1/gonum/stat"
)

type ChannelStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

type Stats struct {
	Red   ChannelStats `json:"red"`
	Green ChannelStats `json:"green"`
	Blue  ChannelStats `json:"blue"`
	Alpha ChannelStats `json:"alpha"`
	Luma  ChannelStats `json:"luma"`
	// Grey is set when every pixel has R == G == B.
	Grey bool `json:"grey"`
}

func channelStats(x []float64) ChannelStats {
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		std = 0
	}
	return ChannelStats{Mean: mean, StdDev: std}
}

// Measure computes per-channel statistics over the whole buffer. It does not
// modify b.
func Measure(b *raster.Buffer) Stats {
	n := b.Width * b.Height
	r := make([]float64, n)
	g := make([]float64, n)
	bl := make([]float64, n)
	a := make([]float64, n)
	l := make([]float64, n)

	grey := true
	for i := range n {
		p := b.Pix[i*4 : i*4+4 : i*4+4]
		r[i], g[i], bl[i], a[i] = float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3])
		l[i] = float64(Luma(p[0], p[1], p[2]))
		if p[0] != p[1] || p[1] != p[2] {
			grey = false
		}
	}

	return Stats{
		Red:   channelStats(r),
		Green: channelStats(g),
		Blue:  channelStats(bl),
		Alpha: channelStats(a),
		Luma:  channelStats(l),
		Grey:  grey,
	}
}
