package genome

import "fmt"

// PrioritySource supplies the random treap priorities. *math/rand/v2.Rand
// satisfies it. A source must not be shared between genomes that are mutated
// concurrently.
type PrioritySource interface {
	Uint32() uint32
}

// node is one segment of an implicit treap. Its position is the total length
// of everything to its left; size is the number of bases in its subtree.
type node struct {
	seg         Segment
	priority    uint32
	left, right *node
	size        int
}

func newNode(seg Segment, src PrioritySource) *node {
	return &node{
		seg:      seg,
		priority: src.Uint32() >> 2,
		size:     seg.length,
	}
}

func (n *node) subtreeLen() int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *node) recalc() {
	n.size = n.seg.length + n.left.subtreeLen() + n.right.subtreeLen()
}

// merge joins two treaps where every base of a precedes every base of b. The
// lower priority becomes the root.
func merge(a, b *node) *node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.priority < b.priority {
		a.right = merge(a.right, b)
		a.recalc()
		return a
	}
	b.left = merge(a, b.left)
	b.recalc()
	return b
}

// splitAt cuts root so that left holds bases [0, pos) and right holds the
// rest. A segment straddling pos is replaced by two clones with fresh
// identities; both inherit the priority of the node they replace so the heap
// order of the surrounding tree is kept.
func splitAt(root *node, pos int) (left, right *node, err error) {
	if root == nil {
		if pos != 0 {
			return nil, nil, fmt.Errorf("%w: split position %d in empty tree", ErrOutOfRange, pos)
		}
		return nil, nil, nil
	}
	if pos < 0 || pos > root.size {
		return nil, nil, fmt.Errorf("%w: split position %d not in [0, %d]", ErrOutOfRange, pos, root.size)
	}
	left, right = split(root, pos)
	return left, right, nil
}

func split(root *node, pos int) (*node, *node) {
	if root == nil {
		return nil, nil
	}
	leftLen := root.left.subtreeLen()
	segLen := root.seg.length

	switch {
	case pos < leftLen:
		l, r := split(root.left, pos)
		root.left = r
		root.recalc()
		return l, root
	case pos > leftLen+segLen:
		l, r := split(root.right, pos-leftLen-segLen)
		root.right = l
		root.recalc()
		return root, r
	}

	offset := pos - leftLen
	switch offset {
	case 0:
		l := root.left
		root.left = nil
		root.recalc()
		return l, root
	case segLen:
		r := root.right
		root.right = nil
		root.recalc()
		return root, r
	}

	head := &node{seg: root.seg.CloneWithLength(offset), priority: root.priority}
	head.recalc()
	tail := &node{seg: root.seg.CloneWithLength(segLen - offset), priority: root.priority}
	tail.recalc()
	return merge(root.left, head), merge(tail, root.right)
}

func leftmost(n *node) *node {
	for n != nil && n.left != nil {
		n = n.left
	}
	return n
}

func rightmost(n *node) *node {
	for n != nil && n.right != nil {
		n = n.right
	}
	return n
}

// detachFirst removes the leftmost node of a non-empty tree.
func detachFirst(n *node) (*node, Segment) {
	if n.left == nil {
		return n.right, n.seg
	}
	var seg Segment
	n.left, seg = detachFirst(n.left)
	n.recalc()
	return n, seg
}

// detachLast removes the rightmost node of a non-empty tree.
func detachLast(n *node) (*node, Segment) {
	if n.right == nil {
		return n.left, n.seg
	}
	var seg Segment
	n.right, seg = detachLast(n.right)
	n.recalc()
	return n, seg
}

func appendSegments(dst []Segment, n *node) []Segment {
	if n == nil {
		return dst
	}
	dst = appendSegments(dst, n.left)
	dst = append(dst, n.seg)
	return appendSegments(dst, n.right)
}

func build(segments []Segment, src PrioritySource) *node {
	var root *node
	for _, seg := range segments {
		root = merge(root, newNode(seg, src))
	}
	return root
}

// checkTree walks the whole tree and verifies the size and heap invariants.
func checkTree(n *node) error {
	if n == nil {
		return nil
	}
	if n.seg.length <= 0 {
		return fmt.Errorf("%w: segment %s has non-positive length", ErrInternalInvariant, n.seg)
	}
	for _, child := range []*node{n.left, n.right} {
		if child == nil {
			continue
		}
		if child.priority < n.priority {
			return fmt.Errorf("%w: heap order broken under %s", ErrInternalInvariant, n.seg)
		}
		if err := checkTree(child); err != nil {
			return err
		}
	}
	if want := n.seg.length + n.left.subtreeLen() + n.right.subtreeLen(); n.size != want {
		return fmt.Errorf("%w: subtree length %d, want %d", ErrInternalInvariant, n.size, want)
	}
	return nil
}
