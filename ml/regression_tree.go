package ml

import (
	"errors"
	"fmt"
)

// RegressionTree is one estimator of a boosted ensemble, stored as a flat
// node array with the root at index 0.
type RegressionTree struct {
	Nodes []TreeNode `json:"nodes" yaml:"nodes"`
}

// TreeNode is a split or a leaf. Rows with features[FeatureIdx] <= Threshold
// go left.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx" yaml:"feature_idx"`
	Threshold  float64 `json:"threshold" yaml:"threshold"`
	LeftChild  int     `json:"left_child" yaml:"left_child"`
	RightChild int     `json:"right_child" yaml:"right_child"`
	Value      float64 `json:"value" yaml:"value"`
	IsLeaf     bool    `json:"is_leaf" yaml:"is_leaf"`
}

// Leaf builds a terminal node.
func Leaf(value float64) TreeNode {
	return TreeNode{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: value, IsLeaf: true}
}

// Split builds an internal node.
func Split(featureIdx int, threshold float64, left, right int) TreeNode {
	return TreeNode{FeatureIdx: featureIdx, Threshold: threshold, LeftChild: left, RightChild: right}
}

func (t *RegressionTree) predict(features []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.New("empty tree")
	}
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
	return 0, errors.New("tree contains a cycle")
}

// validate checks child and feature indices so that predict cannot walk
// off the node array for a correctly sized row.
func (t *RegressionTree) validate(featureCount int) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, node := range t.Nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= featureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(t.Nodes) {
			return fmt.Errorf("node %d: left child %d out of range", i, node.LeftChild)
		}
		if node.RightChild <= i || node.RightChild >= len(t.Nodes) {
			return fmt.Errorf("node %d: right child %d out of range", i, node.RightChild)
		}
	}
	return nil
}
