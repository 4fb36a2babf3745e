package animator

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-mask/common"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
)

// keySpan locates t within n keyframes ordered by time. It returns the keys to interpolate
// between and the factor from lo to hi; lo == hi outside the key range.
func keySpan(n int, time func(i int) float32, t float32) (lo, hi int, f float32) {
	next := sort.Search(n, func(i int) bool { return time(i) > t })
	switch {
	case next == 0:
		return 0, 0, 0
	case next == n:
		return n - 1, n - 1, 0
	}

	lo, hi = next-1, next
	span := time(hi) - time(lo)
	if span <= 0 {
		return hi, hi, 0
	}
	return lo, hi, (t - time(lo)) / span
}

func sampleVector(keys []model.VectorKeyframe, t float32) ([3]float32, bool) {
	if len(keys) == 0 {
		return [3]float32{}, false
	}
	lo, hi, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if lo == hi {
		return keys[lo].Value, true
	}
	return common.Lerp3(keys[lo].Value, keys[hi].Value, f), true
}

func sampleQuat(keys []model.QuaternionKeyframe, t float32) ([4]float32, bool) {
	if len(keys) == 0 {
		return [4]float32{}, false
	}
	lo, hi, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if lo == hi {
		return keys[lo].Value, true
	}
	return common.QuatNormalize(common.QuatSlerp(keys[lo].Value, keys[hi].Value, f)), true
}
