package genome

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestMergeKeepsOrderAndHeap(t *testing.T) {
	src := testSource(1)
	segments := []Segment{
		NewNonCoding(3), NewCoding(4, Forward), NewNonCoding(2), NewCoding(5, Reverse), NewNonCoding(7),
	}
	root := build(segments, src)
	require.NoError(t, checkTree(root))
	assert.Equal(t, 21, root.subtreeLen())

	got := appendSegments(nil, root)
	require.Len(t, got, len(segments))
	for i := range segments {
		assert.True(t, got[i].SameInstance(segments[i]), "segment %d", i)
	}
}

func TestMergeNil(t *testing.T) {
	src := testSource(2)
	n := newNode(NewNonCoding(4), src)
	assert.Same(t, n, merge(nil, n))
	assert.Same(t, n, merge(n, nil))
	assert.Nil(t, merge(nil, nil))
}

func TestSplitAtEveryPositionRoundTrips(t *testing.T) {
	base := []Segment{NewNonCoding(3), NewCoding(4, Forward), NewNonCoding(2), NewCoding(1, Reverse)}
	total := 10
	for pos := 0; pos <= total; pos++ {
		src := testSource(uint64(pos) + 10)
		segments := make([]Segment, len(base))
		for i, seg := range base {
			segments[i] = seg.CloneWithLength(seg.length)
		}
		root := build(segments, src)

		left, right, err := splitAt(root, pos)
		require.NoError(t, err)
		assert.Equal(t, pos, left.subtreeLen())
		assert.Equal(t, total-pos, right.subtreeLen())
		require.NoError(t, checkTree(left))
		require.NoError(t, checkTree(right))

		joined := merge(left, right)
		require.NoError(t, checkTree(joined))
		assert.Equal(t, total, joined.subtreeLen())

		before := appendSegments(nil, build(base, src))
		after := appendSegments(nil, joined)
		var beforeBases, afterBases []Kind
		for _, seg := range before {
			for range seg.length {
				beforeBases = append(beforeBases, seg.kind)
			}
		}
		for _, seg := range after {
			for range seg.length {
				afterBases = append(afterBases, seg.kind)
			}
		}
		assert.Equal(t, beforeBases, afterBases, "pos %d", pos)
	}
}

func TestSplitAtInsideSegmentCreatesFreshIdentities(t *testing.T) {
	src := testSource(3)
	coding := NewCoding(4, Reverse)
	root := build([]Segment{NewNonCoding(3), coding, NewNonCoding(2)}, src)

	left, right, err := splitAt(root, 5)
	require.NoError(t, err)

	head := rightmost(left).seg
	tail := leftmost(right).seg
	assert.Equal(t, 2, head.Len())
	assert.Equal(t, 2, tail.Len())
	assert.Equal(t, Reverse, head.Orientation())
	assert.Equal(t, Reverse, tail.Orientation())
	assert.False(t, head.SameInstance(coding))
	assert.False(t, tail.SameInstance(coding))
	assert.False(t, head.SameInstance(tail))
}

func TestSplitAtBoundaryKeepsIdentity(t *testing.T) {
	src := testSource(4)
	first := NewNonCoding(3)
	second := NewCoding(4, Forward)
	root := build([]Segment{first, second}, src)

	left, right, err := splitAt(root, 3)
	require.NoError(t, err)
	assert.True(t, rightmost(left).seg.SameInstance(first))
	assert.True(t, leftmost(right).seg.SameInstance(second))
}

func TestSplitAtOutOfRange(t *testing.T) {
	src := testSource(5)
	root := build([]Segment{NewNonCoding(3)}, src)

	_, _, err := splitAt(root, 4)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, _, err = splitAt(root, -1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, _, err = splitAt(nil, 1)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	left, right, err := splitAt(nil, 0)
	require.NoError(t, err)
	assert.Nil(t, left)
	assert.Nil(t, right)
}

func TestDetachEnds(t *testing.T) {
	src := testSource(6)
	a, b, c := NewNonCoding(1), NewCoding(2, Forward), NewNonCoding(3)
	root := build([]Segment{a, b, c}, src)

	rest, first := detachFirst(root)
	assert.True(t, first.SameInstance(a))
	assert.Equal(t, 5, rest.subtreeLen())

	rest, last := detachLast(rest)
	assert.True(t, last.SameInstance(c))
	assert.Equal(t, 2, rest.subtreeLen())
	require.NoError(t, checkTree(rest))
}
