package gbdt

// Node is one entry of a flat tree; children are indices into Tree.Nodes
type Node struct {
	// Feature is the split column, -1 on leaves
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	// Value is the shrunk leaf weight
	Value float64 `json:"value,omitempty"`
	Gain  float64 `json:"gain,omitempty"`
	Cover float64 `json:"cover"`
}

// IsLeaf reports whether the node ends a path
func (n Node) IsLeaf() bool { return n.Feature < 0 }

// Tree is a regression tree stored root first
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Leaf walks x down the tree; values below the threshold go left
func (t Tree) Leaf(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth is the longest root to leaf edge count
func (t Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}
