package ml

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomSample draws n standard-normal values rounded to 4 decimals.
// It is a demo helper for the HTML form; its output still goes through Dispatch.
func RandomSample(n int, src rand.Source) []float64 {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round(normal.Rand()*1e4) / 1e4
	}
	return out
}
