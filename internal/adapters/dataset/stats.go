package dataset

import (
	"maps"
	"slices"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// Summary describes an encoded frame for logs
type Summary struct {
	Rows      int
	Positives int
	ChurnRate float64
	// Columns maps a numeric column to its mean and standard deviation
	Columns map[string][2]float64
}

// Summarize computes the churn rate and moments of the named columns
// columns absent from the frame are skipped
func Summarize(fr Frame, columns ...string) Summary {
	s := Summary{Rows: len(fr.Rows), Columns: map[string][2]float64{}}
	if len(fr.Labels) > 0 {
		s.ChurnRate = stat.Mean(fr.Labels, nil)
		for _, y := range fr.Labels {
			if y == 1 {
				s.Positives++
			}
		}
	}
	if len(fr.Rows) == 0 {
		return s
	}
	col := make([]float64, len(fr.Rows))
	for _, name := range columns {
		j := slices.Index(fr.Columns, name)
		if j < 0 {
			continue
		}
		for i, r := range fr.Rows {
			col[i] = r[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		s.Columns[name] = [2]float64{mean, std}
	}
	return s
}

// MarshalZerologObject lets a Summary ride on a log event
func (s Summary) MarshalZerologObject(e *zerolog.Event) {
	e.Int("rows", s.Rows).Int("positives", s.Positives).Float64("churn_rate", s.ChurnRate)
	for _, name := range slices.Sorted(maps.Keys(s.Columns)) {
		m := s.Columns[name]
		e.Dict(name, zerolog.Dict().Float64("mean", m[0]).Float64("std", m[1]))
	}
}
