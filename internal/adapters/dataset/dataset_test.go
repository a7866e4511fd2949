package dataset

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"churnops/internal/core/encode"
	"churnops/internal/core/schema"
	perr "churnops/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRoundTripThroughEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRaw(&buf, schema.Header(), SeedRecords()))
	assert.True(t, strings.HasPrefix(buf.String(), "customerID,gender,SeniorCitizen,"))

	recs, err := ReadRaw(&buf)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, "9237-HQITU", recs[4][schema.IDColumn])

	res, err := encode.Encode(recs, nil)
	require.NoError(t, err)
	assert.Len(t, res.Vectors, 5)
	assert.Equal(t, []float64{0, 0, 1, 0, 1}, res.Labels)
}

func TestReadRawCleansHeader(t *testing.T) {
	in := "\ufeffcustomerID, gender \nA,Male\n"
	recs, err := ReadRaw(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	v, ok := recs[0].Get("gender")
	require.True(t, ok)
	assert.Equal(t, "Male", v)
	_, ok = recs[0].Get(schema.IDColumn)
	assert.True(t, ok)
}

func TestReadRawErrors(t *testing.T) {
	_, err := ReadRaw(strings.NewReader(""))
	assert.True(t, perr.IsCode(err, perr.ErrorCodeSchema))

	_, err = ReadRaw(strings.NewReader("a,b\n1,2,3\n"))
	assert.True(t, perr.IsCode(err, perr.ErrorCodeSchema))

	_, err = ReadRawFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))
}

func TestEncodedRoundTrip(t *testing.T) {
	fr := Frame{
		Columns: []string{"tenure", "gender_Male", "PaymentMethod_Mailed check"},
		Rows:    [][]float64{{1, 0, 1}, {34.5, 1, 0}},
		Labels:  []float64{1, 0},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteEncoded(&buf, fr))
	assert.Equal(t, "tenure,gender_Male,PaymentMethod_Mailed check,Churn\n1,0,1,1\n34.5,1,0,0\n", buf.String())

	got, err := ReadEncoded(&buf)
	require.NoError(t, err)
	assert.Equal(t, fr, got)
}

func TestReadEncodedAcceptsBooleans(t *testing.T) {
	got, err := ReadEncoded(strings.NewReader("tenure,gender_Male,Churn\n3,True,1\n4,False,0\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 1}, {4, 0}}, got.Rows)
}

func TestReadEncodedErrors(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"no label":    "tenure,gender_Male\n1,0\n",
		"bad cell":    "tenure,Churn\nx,1\n",
		"bad label":   "tenure,Churn\n1,2\n",
		"only label":  "Churn\n1\n",
		"ragged rows": "tenure,Churn\n1\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadEncoded(strings.NewReader(in))
			assert.True(t, perr.IsCode(err, perr.ErrorCodeSchema), "%v", err)
		})
	}
}

func TestSplit(t *testing.T) {
	train, test, err := Split(10, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	seen := map[int]bool{}
	for _, i := range append(append([]int(nil), train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2, err := Split(10, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	_, test3, err := Split(11, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, test3, 3)

	for _, ts := range []float64{0, 1, -0.1} {
		_, _, err = Split(10, ts, 42)
		assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
	}
	_, _, err = Split(1, 0.2, 42)
	assert.Error(t, err)
}

func TestSplitFrameKeepsLabelsAligned(t *testing.T) {
	fr := Frame{Columns: []string{"x"}}
	for i := range 20 {
		fr.Rows = append(fr.Rows, []float64{float64(i)})
		fr.Labels = append(fr.Labels, float64(i%2))
	}
	tr, te, err := SplitFrame(fr, 0.25, 7)
	require.NoError(t, err)
	assert.Len(t, tr.Rows, 15)
	assert.Len(t, te.Rows, 5)
	for _, part := range []Frame{tr, te} {
		for i, r := range part.Rows {
			assert.Equal(t, float64(int(r[0])%2), part.Labels[i])
		}
	}
}

func TestSample(t *testing.T) {
	recs := Sample(SampleSize, 42)
	require.Len(t, recs, 1000)
	assert.Equal(t, "SAMPLE-00000", recs[0][schema.IDColumn])
	assert.Equal(t, "SAMPLE-00999", recs[999][schema.IDColumn])

	for i, r := range recs {
		base := sampleRows[i%5]
		tenure, err := strconv.Atoi(r["tenure"])
		require.NoError(t, err)
		bt, _ := strconv.Atoi(base["tenure"])
		assert.GreaterOrEqual(t, tenure, 1)
		assert.GreaterOrEqual(t, tenure, bt-10)
		assert.Less(t, tenure, max(bt+20, 2))

		m, err := strconv.ParseFloat(r["MonthlyCharges"], 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m, 20.0)

		assert.Equal(t, base["TotalCharges"], r["TotalCharges"])
		assert.Equal(t, base["Churn"], r["Churn"])
	}

	assert.Equal(t, recs, Sample(SampleSize, 42))
	assert.Equal(t, "7590-VHVEG", sampleRows[0][schema.IDColumn])
}

func TestSummarize(t *testing.T) {
	fr := Frame{
		Columns: []string{"tenure", "gender_Male"},
		Rows:    [][]float64{{2, 1}, {4, 0}, {6, 1}, {8, 0}},
		Labels:  []float64{1, 0, 0, 1},
	}
	s := Summarize(fr, "tenure", "missing")
	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 2, s.Positives)
	assert.InDelta(t, 0.5, s.ChurnRate, 1e-12)
	require.Contains(t, s.Columns, "tenure")
	assert.InDelta(t, 5.0, s.Columns["tenure"][0], 1e-12)
	assert.NotContains(t, s.Columns, "missing")
}
