package gbdt

import (
	"context"
	"math/rand/v2"

	perr "churnops/internal/platform/errors"

	"gonum.org/v1/gonum/floats"
)

const (
	baseScore  = 0.5
	minHessian = 1e-16
)

// Train fits a booster on rows and 0/1 labels
// ctx is checked between rounds
func Train(ctx context.Context, rows [][]float64, labels []float64, columns []string, p Params) (*Booster, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, perr.InvalidArgf("no training rows")
	}
	if len(rows) != len(labels) {
		return nil, perr.InvalidArgf("%d rows but %d labels", len(rows), len(labels))
	}
	width := len(columns)
	for i, r := range rows {
		if len(r) != width {
			return nil, perr.Schemaf("row %d has %d values for %d columns", i, len(r), width)
		}
		if y := labels[i]; y != 0 && y != 1 {
			return nil, perr.InvalidArgf("label %v at row %d is not 0 or 1", y, i)
		}
	}

	g := &grower{
		rows:  rows,
		p:     p,
		grad:  make([]float64, len(rows)),
		hess:  make([]float64, len(rows)),
		vals:  make([]float64, len(rows)),
		pos:   make([]int, len(rows)),
		width: width,
	}
	rng := rand.New(rand.NewPCG(uint64(p.Seed), uint64(p.Seed)^0x9e3779b97f4a7c15))
	margin := make([]float64, len(rows))
	base := logit(baseScore)
	for i := range margin {
		margin[i] = base
	}

	trees := make([]Tree, 0, p.Rounds)
	idx := make([]int, 0, len(rows))
	for round := 0; round < p.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "training cancelled at round %d", round)
		}
		for i, m := range margin {
			pr := sigmoid(m)
			g.grad[i] = pr - labels[i]
			g.hess[i] = max(pr*(1-pr), minHessian)
		}

		idx = idx[:0]
		for i := range rows {
			if p.Subsample >= 1 || rng.Float64() < p.Subsample {
				idx = append(idx, i)
			}
		}

		t := g.tree(idx)
		for i, r := range rows {
			margin[i] += t.Leaf(r)
		}
		trees = append(trees, t)
	}
	return newBooster(p, baseScore, columns, trees), nil
}

type grower struct {
	rows       [][]float64
	p          Params
	grad, hess []float64
	// scratch for the split search
	vals  []float64
	pos   []int
	width int
	nodes []Node
}

func (g *grower) tree(idx []int) Tree {
	g.nodes = make([]Node, 0, 1<<(g.p.MaxDepth+1)-1)
	g.grow(append([]int(nil), idx...), 0)
	return Tree{Nodes: g.nodes}
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// grow appends the subtree for idx and returns its node index
func (g *grower) grow(idx []int, depth int) int {
	sg, sh := g.sums(idx)
	at := len(g.nodes)
	g.nodes = append(g.nodes, Node{Feature: -1, Cover: sh})

	if depth < g.p.MaxDepth && len(idx) > 1 {
		if s, ok := g.best(idx, sg, sh); ok && s.gain > g.p.Gamma {
			left, right := partition(g.rows, idx, s.feature, s.threshold)
			l := g.grow(left, depth+1)
			r := g.grow(right, depth+1)
			g.nodes[at] = Node{
				Feature:   s.feature,
				Threshold: s.threshold,
				Left:      l,
				Right:     r,
				Gain:      s.gain,
				Cover:     sh,
			}
			return at
		}
	}
	// an empty subsample with lambda 0 has nothing to weigh; its leaf stays 0
	if d := sh + g.p.Lambda; d > 0 {
		g.nodes[at].Value = -sg / d * g.p.Eta
	}
	return at
}

func (g *grower) sums(idx []int) (float64, float64) {
	gs := make([]float64, len(idx))
	hs := make([]float64, len(idx))
	for k, i := range idx {
		gs[k] = g.grad[i]
		hs[k] = g.hess[i]
	}
	return floats.Sum(gs), floats.Sum(hs)
}

// best scans every feature in order; ties keep the earlier candidate
func (g *grower) best(idx []int, sg, sh float64) (split, bool) {
	lambda := g.p.Lambda
	parent := sg * sg / (sh + lambda)
	vals := g.vals[:len(idx)]
	pos := g.pos[:len(idx)]

	var out split
	found := false
	for f := 0; f < g.width; f++ {
		for k, i := range idx {
			vals[k] = g.rows[i][f]
		}
		floats.ArgsortStable(vals, pos)
		if vals[0] == vals[len(vals)-1] {
			continue
		}

		var gl, hl float64
		for k := 0; k < len(vals)-1; k++ {
			i := idx[pos[k]]
			gl += g.grad[i]
			hl += g.hess[i]
			if vals[k] == vals[k+1] {
				continue
			}
			gr, hr := sg-gl, sh-hl
			if hl < g.p.MinChildWeight || hr < g.p.MinChildWeight {
				continue
			}
			gain := 0.5 * (gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent)
			if !found || gain > out.gain {
				thr := (vals[k] + vals[k+1]) / 2
				if thr <= vals[k] {
					thr = vals[k+1]
				}
				out = split{feature: f, threshold: thr, gain: gain}
				found = true
			}
		}
	}
	return out, found
}

func partition(rows [][]float64, idx []int, f int, thr float64) ([]int, []int) {
	var left, right []int
	for _, i := range idx {
		if rows[i][f] < thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}
