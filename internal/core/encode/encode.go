// Package encode turns raw customer records into fixed, ordered feature vectors
//
// Training builds the reference column list from the data it sees; inference
// encodes freely and reindexes onto a reference, so a model always receives the
// columns it was trained on and nothing else
package encode

import (
	"math"
	"slices"
	"strconv"

	"churnops/internal/core/schema"
	perr "churnops/internal/platform/errors"
)

// Result is an encoded frame
type Result struct {
	// Columns is the resolved column list, identical to the reference when one was given
	Columns []string
	// Vectors holds one row per kept record, each len(Columns) wide
	Vectors [][]float64
	// Labels is parallel to Vectors, nil when the input carried no Churn column
	Labels []float64
	// Dropped counts records removed for a missing value in any column
	Dropped int
}

type row struct {
	nums  []float64
	cats  []string
	label float64
}

// Encode encodes rows against reference, or builds the reference when it is nil
func Encode(rows []schema.Record, reference []string) (Result, error) {
	numeric := schema.Numeric()
	categorical := schema.Categorical()

	withLabel := len(rows) > 0
	if withLabel {
		_, withLabel = rows[0].Get(schema.LabelColumn)
	}

	kept := make([]row, 0, len(rows))
	dropped := 0
	for i, rec := range rows {
		r, ok, err := parse(i, rec, numeric, categorical, withLabel)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			dropped++
			continue
		}
		kept = append(kept, r)
	}

	columns := reference
	if columns == nil {
		columns = buildReference(kept, numeric, categorical)
	} else {
		columns = slices.Clone(reference)
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}

	res := Result{Columns: columns, Vectors: make([][]float64, len(kept)), Dropped: dropped}
	if withLabel {
		res.Labels = make([]float64, len(kept))
	}
	for i, r := range kept {
		v := make([]float64, len(columns))
		for j, f := range numeric {
			if k, ok := index[f.Name]; ok {
				v[k] = r.nums[j]
			}
		}
		for j, f := range categorical {
			if k, ok := index[schema.Column(f.Name, r.cats[j])]; ok {
				v[k] = 1
			}
		}
		res.Vectors[i] = v
		if withLabel {
			res.Labels[i] = r.label
		}
	}
	return res, nil
}

// parse reads one record; ok is false when any cell, the label included, is missing
func parse(i int, rec schema.Record, numeric, categorical []schema.Field, withLabel bool) (row, bool, error) {
	r := row{nums: make([]float64, len(numeric)), cats: make([]string, len(categorical))}
	keep := true

	for j, f := range numeric {
		raw, ok := rec.Get(f.Name)
		if !ok {
			return row{}, false, missingField(i, f.Name)
		}
		raw = schema.Clean(raw)
		if schema.Missing(raw) {
			keep = false
			continue
		}
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			if f.Name == schema.Coerced {
				keep = false
				continue
			}
			return row{}, false, perr.WithField(perr.Schemaf("row %d: %s is not numeric: %q", i, f.Name, raw), f.Name)
		}
		if f.Kind == schema.KindInteger && x != math.Trunc(x) {
			return row{}, false, perr.WithField(perr.Schemaf("row %d: %s is not an integer: %q", i, f.Name, raw), f.Name)
		}
		r.nums[j] = x
	}

	for j, f := range categorical {
		raw, ok := rec.Get(f.Name)
		if !ok {
			return row{}, false, missingField(i, f.Name)
		}
		raw = schema.Clean(raw)
		if schema.Missing(raw) {
			keep = false
			continue
		}
		r.cats[j] = raw
	}

	if withLabel {
		raw, ok := rec.Get(schema.LabelColumn)
		if !ok {
			return row{}, false, missingField(i, schema.LabelColumn)
		}
		switch raw = schema.Clean(raw); {
		case schema.Missing(raw):
			keep = false
		case raw == "Yes":
			r.label = 1
		}
	}
	return r, keep, nil
}

func missingField(i int, name string) error {
	return perr.WithField(perr.Schemaf("row %d: required field %s is absent", i, name), name)
}

// buildReference lists numeric columns, then each categorical's observed
// values sorted ascending without the first level
func buildReference(rows []row, numeric, categorical []schema.Field) []string {
	cols := make([]string, 0, len(numeric)+len(categorical)*2)
	for _, f := range numeric {
		cols = append(cols, f.Name)
	}
	for j, f := range categorical {
		seen := make(map[string]struct{})
		for _, r := range rows {
			seen[r.cats[j]] = struct{}{}
		}
		levels := make([]string, 0, len(seen))
		for v := range seen {
			levels = append(levels, v)
		}
		slices.Sort(levels)
		for _, v := range levels[min(1, len(levels)):] {
			cols = append(cols, schema.Column(f.Name, v))
		}
	}
	return cols
}

// Align reindexes an encoded frame onto reference
// columns the frame lacks are zero and extra columns are dropped
func Align(header []string, rows [][]float64, reference []string) ([][]float64, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; dup {
			return nil, perr.WithField(perr.Schemaf("duplicate column %s", h), h)
		}
		pos[h] = i
	}
	src := make([]int, len(reference))
	for i, c := range reference {
		j, ok := pos[c]
		if !ok {
			j = -1
		}
		src[i] = j
	}

	out := make([][]float64, len(rows))
	for i, r := range rows {
		if len(r) != len(header) {
			return nil, perr.Schemaf("row %d: %d values for %d columns", i, len(r), len(header))
		}
		v := make([]float64, len(reference))
		for k, j := range src {
			if j >= 0 {
				v[k] = r[j]
			}
		}
		out[i] = v
	}
	return out, nil
}
