package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func quatAlmost(t *testing.T, want, got [4]float32) {
	t.Helper()
	// q and -q describe the same rotation
	if want[3]*got[3] < 0 {
		got = [4]float32{-got[0], -got[1], -got[2], -got[3]}
	}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d", i)
	}
}

func TestQuatMulIdentity(t *testing.T) {
	q := QuatNormalize([4]float32{0.1, 0.2, 0.3, 0.9})
	quatAlmost(t, q, QuatMul(q, QuatIdentity()))
	quatAlmost(t, q, QuatMul(QuatIdentity(), q))
	quatAlmost(t, QuatIdentity(), QuatMul(q, QuatConjugate(q)))
}

func TestQuatSlerp(t *testing.T) {
	half := math32.Sqrt(0.5)
	a := QuatIdentity()
	b := [4]float32{0, half, 0, half} // 90 degrees about Y

	quatAlmost(t, a, QuatSlerp(a, b, 0))
	quatAlmost(t, b, QuatSlerp(a, b, 1))

	mid := QuatSlerp(a, b, 0.5)
	want := [4]float32{0, math32.Sin(math32.Pi / 8), 0, math32.Cos(math32.Pi / 8)}
	quatAlmost(t, want, mid)
}

func TestQuatNormalizeZero(t *testing.T) {
	assert.Equal(t, QuatIdentity(), QuatNormalize([4]float32{}))
}

func TestVectorHelpers(t *testing.T) {
	assert.Equal(t, [3]float32{1, 2, 3}, Lerp3([3]float32{0, 0, 0}, [3]float32{2, 4, 6}, 0.5))
	assert.Equal(t, [3]float32{3, 3, 3}, Add3([3]float32{1, 2, 3}, [3]float32{2, 1, 0}))
	assert.Equal(t, [3]float32{-1, 1, 3}, Sub3([3]float32{1, 2, 3}, [3]float32{2, 1, 0}))
	assert.Equal(t, [3]float32{2, 4, 6}, Scale3([3]float32{1, 2, 3}, 2))
	assert.Equal(t, [3]float32{2, 2, 0}, Mul3([3]float32{1, 2, 3}, [3]float32{2, 1, 0}))
	assert.Equal(t, [3]float32{2, 1, 1}, Ratio3([3]float32{4, 2, 5}, [3]float32{2, 2, 0}))
}

func TestWrap(t *testing.T) {
	assert.InDelta(t, 0.5, Wrap(2.5, 1), 1e-6)
	assert.InDelta(t, 0.75, Wrap(-0.25, 1), 1e-6)
	assert.Equal(t, float32(3), Wrap(3, 0))
	assert.True(t, ApproxEqual(1, 1.00001, 1e-3))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
