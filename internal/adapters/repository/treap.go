package repository

import (
	"math/rand/v2"

	"github.com/okian/heartrobot/internal/domain/model"
)

// scoreIndex is a treap ordering records by score DESC, then CreatedAt ASC,
// then ID ASC. In-order traversal yields the best scores first.
type scoreIndex struct {
	root *node
}

type indexKey struct {
	score   int
	created int64
	id      string
}

type node struct {
	key   indexKey
	prio  uint64
	left  *node
	right *node
	size  int
}

func keyOf(rec model.ScoreRecord) indexKey {
	return indexKey{score: rec.Score, created: rec.CreatedAt.UnixNano(), id: rec.ID}
}

// before reports whether a ranks ahead of b.
func before(a, b indexKey) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.created != b.created {
		return a.created < b.created
	}
	return a.id < b.id
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, k indexKey, prio uint64) *node {
	if n == nil {
		return &node{key: k, prio: prio, size: 1}
	}
	if before(k, n.key) {
		n.left = insert(n.left, k, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func (ix *scoreIndex) Insert(rec model.ScoreRecord) {
	ix.root = insert(ix.root, keyOf(rec), rand.Uint64())
}

func (ix *scoreIndex) Len() int { return nsize(ix.root) }

// Top returns the ids of the first limit records in rank order.
func (ix *scoreIndex) Top(limit int) []string {
	out := make([]string, 0, min(limit, ix.Len()))
	collectTop(ix.root, limit, &out)
	return out
}

func collectTop(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTop(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.key.id)
	}
	if len(*out) < limit {
		collectTop(n.right, limit, out)
	}
}
