package gridview

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the valid cells of a grid.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Sum    float64
	Mean   float64
	StdDev float64
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d min=%g max=%g sum=%g mean=%g stddev=%g",
		s.Count, s.Min, s.Max, s.Sum, s.Mean, s.StdDev)
}

// Summarize gathers the valid values of g in a bulk pass at g's parallel
// degree and summarizes them. Statistics of a grid without valid cells are
// NaN.
func Summarize(g Grid2D) (Summary, error) {
	vals, err := Reduce(parallelism(g), g.SizeX(), g.SizeY(),
		func() []float64 { return nil },
		func(acc []float64, i, j int) []float64 {
			if g.IsValid(i, j) {
				acc = append(acc, g.Get(i, j))
			}
			return acc
		},
		func(a, b []float64) []float64 { return append(a, b...) })
	if err != nil {
		return Summary{}, err
	}

	if len(vals) == 0 {
		nan := math.NaN()
		return Summary{Min: nan, Max: nan, Sum: 0, Mean: nan, StdDev: nan}, nil
	}
	s := Summary{
		Count: len(vals),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
		Sum:   floats.Sum(vals),
	}
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	if s.Count < 2 {
		s.StdDev = 0
	}
	return s, nil
}
