// Package dataset reads and writes the churn CSV files
//
// Raw files carry one customer per row under a named header. Encoded files
// (train.csv, test.csv) carry the resolved feature columns and, last, the
// Churn label as 0 or 1
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"churnops/internal/core/schema"
	perr "churnops/internal/platform/errors"
)

const (
	// RawFile is the raw dataset path relative to the input directory
	RawFile = "raw/churn_data.csv"
	// TrainFile is the encoded training split
	TrainFile = "train.csv"
	// TestFile is the encoded held out split
	TestFile = "test.csv"
)

// Frame is an encoded table: feature columns and a parallel label slice
type Frame struct {
	Columns []string
	Rows    [][]float64
	Labels  []float64
}

// ReadRaw parses a raw CSV into records keyed by cleaned header names
func ReadRaw(r io.Reader) ([]schema.Record, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	head, err := cr.Read()
	if err == io.EOF {
		return nil, perr.Schemaf("raw csv is empty")
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeSchema, "read raw header")
	}
	header := make([]string, len(head))
	for i, h := range head {
		header[i] = schema.Clean(h)
	}

	var out []schema.Record
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeSchema, "read raw line %d", line)
		}
		row := make(schema.Record, len(header))
		for i, h := range header {
			row[h] = rec[i]
		}
		out = append(out, row)
	}
	return out, nil
}

// ReadRawFile opens path and parses it with ReadRaw
func ReadRawFile(path string) ([]schema.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "open %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadRaw(f)
}

// WriteRaw writes records under header; absent cells are empty
func WriteRaw(w io.Writer, header []string, rows []schema.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	line := make([]string, len(header))
	for _, r := range rows {
		for i, h := range header {
			line[i] = r[h]
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadEncoded parses an encoded CSV; the last column must be Churn
func ReadEncoded(r io.Reader) (Frame, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	head, err := cr.Read()
	if err == io.EOF {
		return Frame{}, perr.Schemaf("encoded csv is empty")
	}
	if err != nil {
		return Frame{}, perr.Wrap(err, perr.ErrorCodeSchema, "read encoded header")
	}
	if len(head) < 2 || schema.Clean(head[len(head)-1]) != schema.LabelColumn {
		return Frame{}, perr.WithField(perr.Schemaf("encoded csv must end with the %s column", schema.LabelColumn), schema.LabelColumn)
	}
	width := len(head) - 1
	fr := Frame{Columns: make([]string, width)}
	for i := range width {
		fr.Columns[i] = schema.Clean(head[i])
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Frame{}, perr.Wrapf(err, perr.ErrorCodeSchema, "read encoded line %d", line)
		}
		row := make([]float64, width)
		for i := range width {
			v, err := parseCell(rec[i])
			if err != nil {
				return Frame{}, perr.WithField(perr.Schemaf("line %d: %s is not numeric: %q", line, fr.Columns[i], rec[i]), fr.Columns[i])
			}
			row[i] = v
		}
		y, err := parseCell(rec[width])
		if err != nil || (y != 0 && y != 1) {
			return Frame{}, perr.WithField(perr.Schemaf("line %d: label %q is not 0 or 1", line, rec[width]), schema.LabelColumn)
		}
		fr.Rows = append(fr.Rows, row)
		fr.Labels = append(fr.Labels, y)
	}
	return fr, nil
}

// ReadEncodedFile opens path and parses it with ReadEncoded
func ReadEncodedFile(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, perr.Wrapf(err, perr.ErrorCodeNotFound, "open %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadEncoded(f)
}

// parseCell accepts numbers and the boolean spellings one-hot writers use
func parseCell(s string) (float64, error) {
	switch s = schema.Clean(s); s {
	case "True", "true":
		return 1, nil
	case "False", "false":
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// WriteEncoded writes fr with Churn as the last column
func WriteEncoded(w io.Writer, fr Frame) error {
	if len(fr.Rows) != len(fr.Labels) {
		return perr.InvalidArgf("%d rows but %d labels", len(fr.Rows), len(fr.Labels))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string(nil), fr.Columns...), schema.LabelColumn)); err != nil {
		return err
	}
	line := make([]string, len(fr.Columns)+1)
	for i, r := range fr.Rows {
		if len(r) != len(fr.Columns) {
			return perr.Schemaf("row %d has %d values for %d columns", i, len(r), len(fr.Columns))
		}
		for j, v := range r {
			line[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		line[len(r)] = strconv.FormatFloat(fr.Labels[i], 'g', -1, 64)
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
