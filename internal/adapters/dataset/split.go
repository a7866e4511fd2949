package dataset

import (
	"math"
	"math/rand/v2"

	perr "churnops/internal/platform/errors"
)

// Split partitions n row indices into train and test sets with a seeded shuffle
// the test side gets ceil(testSize*n) rows and both sides keep shuffled order
func Split(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, perr.WithField(perr.InvalidArgf("test size must be in (0,1), got %v", testSize), "test_size")
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if n < 2 || nTest >= n {
		return nil, nil, perr.InvalidArgf("cannot split %d rows with test size %v", n, testSize)
	}
	perm := rng(seed).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// SplitFrame applies Split to an encoded frame
func SplitFrame(fr Frame, testSize float64, seed int64) (Frame, Frame, error) {
	trainIdx, testIdx, err := Split(len(fr.Rows), testSize, seed)
	if err != nil {
		return Frame{}, Frame{}, err
	}
	return fr.take(trainIdx), fr.take(testIdx), nil
}

func (fr Frame) take(idx []int) Frame {
	out := Frame{Columns: fr.Columns, Rows: make([][]float64, len(idx))}
	if fr.Labels != nil {
		out.Labels = make([]float64, len(idx))
	}
	for k, i := range idx {
		out.Rows[k] = fr.Rows[i]
		if fr.Labels != nil {
			out.Labels[k] = fr.Labels[i]
		}
	}
	return out
}

func rng(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
}
