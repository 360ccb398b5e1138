package booster

import (
	"fmt"
	"math"
)

const leafNode = -1

// tree is a flattened regression tree. Node 0 is the root, a node with no left child is
// a leaf whose value lives in cond.
type tree struct {
	left        []int
	right       []int
	split       []int
	cond        []float32
	defaultLeft []bool
}

func newTree(tj treeJSON, numFeature int) (tree, error) {
	n := len(tj.LeftChildren)
	if n == 0 {
		return tree{}, fmt.Errorf("tree %d has no nodes, %w", tj.ID, ErrInvalidModel)
	}
	if len(tj.RightChildren) != n || len(tj.SplitIndices) != n ||
		len(tj.SplitConditions) != n || len(tj.DefaultLeft) != n {
		return tree{}, fmt.Errorf("tree %d has inconsistent node arrays, %w", tj.ID, ErrInvalidModel)
	}
	for _, st := range tj.SplitType {
		if st != 0 {
			return tree{}, fmt.Errorf("tree %d uses categorical splits, %w", tj.ID, ErrUnsupportedModel)
		}
	}

	t := tree{
		left:        tj.LeftChildren,
		right:       tj.RightChildren,
		split:       tj.SplitIndices,
		cond:        make([]float32, n),
		defaultLeft: []bool(tj.DefaultLeft),
	}
	for i := 0; i < n; i++ {
		t.cond[i] = float32(tj.SplitConditions[i])

		l, r := t.left[i], t.right[i]
		if l == leafNode {
			if r != leafNode {
				return tree{}, fmt.Errorf("tree %d node %d has a single child, %w", tj.ID, i, ErrInvalidModel)
			}
			continue
		}
		// children are always stored after their parent which guarantees traversal terminates
		if l <= i || l >= n || r <= i || r >= n {
			return tree{}, fmt.Errorf("tree %d node %d has out of order children, %w", tj.ID, i, ErrInvalidModel)
		}
		if t.split[i] < 0 || t.split[i] >= numFeature {
			return tree{}, fmt.Errorf("tree %d node %d splits on feature %d of %d, %w", tj.ID, i, t.split[i], numFeature, ErrInvalidModel)
		}
	}
	return t, nil
}

// leaf walks the tree for a single row. Splits compare in single precision to match how
// the trees were trained, missing values follow the default direction.
func (t tree) leaf(x []float32) float32 {
	node := 0
	for {
		l := t.left[node]
		if l == leafNode {
			return t.cond[node]
		}
		v := x[t.split[node]]
		switch {
		case math.IsNaN(float64(v)):
			if t.defaultLeft[node] {
				node = l
			} else {
				node = t.right[node]
			}
		case v < t.cond[node]:
			node = l
		default:
			node = t.right[node]
		}
	}
}
