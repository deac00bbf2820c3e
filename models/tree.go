package models

import (
	"math"
	"math/rand/v2"
	"sort"
)

const leafFeature = -1

type treeNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// regressionTree is a binary tree grown by greedy variance reduction over a random subset of
// candidate features at each split. Nodes are stored flat with child indices.
type regressionTree struct {
	nodes []treeNode
}

type treeParams struct {
	maxFeatures int
	maxDepth    int
	minLeafSize int
	minVariance float64
}

type treeBuilder struct {
	x      [][]float64
	y      []float64
	params treeParams
	rng    *rand.Rand

	tree       *regressionTree
	importance []float64
}

func growTree(x [][]float64, y []float64, idx []int, params treeParams, rng *rand.Rand, importance []float64) *regressionTree {
	b := &treeBuilder{
		x:          x,
		y:          y,
		params:     params,
		rng:        rng,
		tree:       &regressionTree{},
		importance: importance,
	}
	b.grow(idx, 0)
	return b.tree
}

// grow appends the node covering idx and its subtree, returning the node index
func (b *treeBuilder) grow(idx []int, depth int) int {
	nodeIdx := len(b.tree.nodes)
	mean, sse := meanSSE(b.y, idx)
	b.tree.nodes = append(b.tree.nodes, treeNode{feature: leafFeature, value: mean})

	if len(idx) < 2*b.params.minLeafSize {
		return nodeIdx
	}
	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return nodeIdx
	}
	if sse/float64(len(idx)) <= b.params.minVariance {
		return nodeIdx
	}

	feature, threshold, gain, ok := b.bestSplit(idx, sse)
	if !ok {
		return nodeIdx
	}
	b.importance[feature] += gain

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	left := b.grow(leftIdx, depth+1)
	right := b.grow(rightIdx, depth+1)
	b.tree.nodes[nodeIdx] = treeNode{
		feature:   feature,
		threshold: threshold,
		left:      left,
		right:     right,
		value:     mean,
	}
	return nodeIdx
}

// bestSplit evaluates features in random order until maxFeatures have been tried and a valid
// split was found, continuing past maxFeatures only while no valid split exists.
func (b *treeBuilder) bestSplit(idx []int, parentSSE float64) (int, float64, float64, bool) {
	nFeatures := len(b.x[idx[0]])
	order := b.rng.Perm(nFeatures)

	bestFeature := leafFeature
	bestThreshold := 0.0
	bestGain := 0.0

	sorted := make([]int, len(idx))
	for tried, feature := range order {
		if tried >= b.params.maxFeatures && bestFeature != leafFeature {
			break
		}
		copy(sorted, idx)
		threshold, gain, ok := b.splitFeature(sorted, feature, parentSSE)
		if ok && gain > bestGain {
			bestFeature = feature
			bestThreshold = threshold
			bestGain = gain
		}
	}
	return bestFeature, bestThreshold, bestGain, bestFeature != leafFeature
}

// splitFeature sorts idx by the feature and sweeps every boundary between distinct values
func (b *treeBuilder) splitFeature(idx []int, feature int, parentSSE float64) (float64, float64, bool) {
	sort.Slice(idx, func(i, j int) bool {
		return b.x[idx[i]][feature] < b.x[idx[j]][feature]
	})

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}

	n := len(idx)
	minLeaf := b.params.minLeafSize

	var leftSum, leftSq float64
	bestGain := 0.0
	bestThreshold := 0.0
	found := false
	for k := 0; k < n-1; k++ {
		yk := b.y[idx[k]]
		leftSum += yk
		leftSq += yk * yk

		nLeft := k + 1
		nRight := n - nLeft
		if nLeft < minLeaf || nRight < minLeaf {
			continue
		}
		curr := b.x[idx[k]][feature]
		next := b.x[idx[k+1]][feature]
		if curr == next {
			continue
		}

		rightSum := totalSum - leftSum
		rightSq := totalSq - leftSq
		leftSSE := leftSq - leftSum*leftSum/float64(nLeft)
		rightSSE := rightSq - rightSum*rightSum/float64(nRight)

		gain := parentSSE - leftSSE - rightSSE
		if gain > bestGain {
			bestGain = gain
			bestThreshold = curr + (next-curr)/2.0
			found = true
		}
	}
	return bestThreshold, bestGain, found
}

func (t *regressionTree) predict(row []float64) float64 {
	node := t.nodes[0]
	for node.feature != leafFeature {
		if row[node.feature] <= node.threshold {
			node = t.nodes[node.left]
		} else {
			node = t.nodes[node.right]
		}
	}
	return node.value
}

// meanSSE returns the mean and sum of squared deviations of y over idx
func meanSSE(y []float64, idx []int) (float64, float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))

	var sse float64
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return mean, math.Max(sse, 0)
}
