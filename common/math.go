package common

import (
	"github.com/chewxy/math32"
)

// QuatIdentity returns the identity rotation quaternion (x, y, z, w).
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatMul multiplies two quaternions stored as (x, y, z, w) and returns a * b.
// Applying the result rotates by b first and then by a.
//
// Parameters:
//   - a: left-hand quaternion
//   - b: right-hand quaternion
//
// Returns:
//   - [4]float32: the product quaternion
func QuatMul(a, b [4]float32) [4]float32 {
	ax, ay, az, aw := a[0], a[1], a[2], a[3]
	bx, by, bz, bw := b[0], b[1], b[2], b[3]
	return [4]float32{
		ax*bw + aw*bx + ay*bz - az*by,
		ay*bw + aw*by + az*bx - ax*bz,
		az*bw + aw*bz + ax*by - ay*bx,
		aw*bw - ax*bx - ay*by - az*bz,
	}
}

// QuatConjugate returns the conjugate of q, which is its inverse when q is normalized.
func QuatConjugate(q [4]float32) [4]float32 {
	return [4]float32{-q[0], -q[1], -q[2], q[3]}
}

// QuatNormalize returns q scaled to unit length. A zero quaternion normalizes to identity.
func QuatNormalize(q [4]float32) [4]float32 {
	l := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l < 0.0001 {
		return QuatIdentity()
	}
	return [4]float32{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// QuatSlerp spherically interpolates from a to b by t in [0, 1], taking the shortest arc.
// Nearly parallel inputs fall back to a normalized linear blend.
//
// Parameters:
//   - a: the start rotation
//   - b: the end rotation
//   - t: the interpolation factor
//
// Returns:
//   - [4]float32: the interpolated rotation
func QuatSlerp(a, b [4]float32, t float32) [4]float32 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}

	cosHalfTheta := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if cosHalfTheta < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
		cosHalfTheta = -cosHalfTheta
	}
	if cosHalfTheta >= 1.0 {
		return a
	}

	sqrSinHalfTheta := 1.0 - cosHalfTheta*cosHalfTheta
	if sqrSinHalfTheta < 0.001 {
		s := 1 - t
		return QuatNormalize([4]float32{
			s*a[0] + t*b[0],
			s*a[1] + t*b[1],
			s*a[2] + t*b[2],
			s*a[3] + t*b[3],
		})
	}

	sinHalfTheta := math32.Sqrt(sqrSinHalfTheta)
	halfTheta := math32.Atan2(sinHalfTheta, cosHalfTheta)
	ratioA := math32.Sin((1-t)*halfTheta) / sinHalfTheta
	ratioB := math32.Sin(t*halfTheta) / sinHalfTheta

	return [4]float32{
		a[0]*ratioA + b[0]*ratioB,
		a[1]*ratioA + b[1]*ratioB,
		a[2]*ratioA + b[2]*ratioB,
		a[3]*ratioA + b[3]*ratioB,
	}
}

// Lerp3 linearly interpolates between two 3D vectors.
func Lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// Add3 returns a + b.
func Add3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub3 returns a - b.
func Sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Scale3 returns v scaled by s.
func Scale3(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}

// Mul3 returns the component-wise product of a and b.
func Mul3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Ratio3 returns the component-wise quotient a / b. Components of b near zero yield 1,
// so a degenerate rest scale never explodes a combined scale.
func Ratio3(a, b [3]float32) [3]float32 {
	var out [3]float32
	for i := range out {
		if math32.Abs(b[i]) < 0.0001 {
			out[i] = 1
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

// Wrap returns t wrapped into [0, period). A non-positive period returns t unchanged.
//
// Parameters:
//   - t: the value to wrap
//   - period: the wrap length
//
// Returns:
//   - float32: the wrapped value
func Wrap(t, period float32) float32 {
	if period <= 0 {
		return t
	}
	t = math32.Mod(t, period)
	if t < 0 {
		t += period
	}
	return t
}

// ApproxEqual reports whether a and b differ by no more than eps.
func ApproxEqual(a, b, eps float32) bool {
	return math32.Abs(a-b) <= eps
}
