package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBonePath(t *testing.T) {
	tests := []struct {
		in   string
		want BonePath
	}{
		{"Body", BonePath{"Body"}},
		{"Body/Right Arm Upper", BonePath{"Body", "Right Arm Upper"}},
		{"/Body//Head/", BonePath{"Body", "Head"}},
		{"", BonePath{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBonePath(tt.in), tt.in)
	}
}

func TestBoneIDDeterministic(t *testing.T) {
	a := ParseBonePath("Body/Right Arm Upper").ID()
	b := BonePath{"Body", "Right Arm Upper"}.ID()
	assert.Equal(t, a, b)
	assert.Equal(t, a.String(), b.String())
}

func TestBoneIDDistinct(t *testing.T) {
	ids := []BoneID{
		BonePath{"Body"}.ID(),
		BonePath{"body"}.ID(),
		BonePath{"Body", "Head"}.ID(),
		BonePath{"Head", "Body"}.ID(),
		BonePath{"Body/Head"}.ID(),
		BonePath{"a/b", "c"}.ID(),
		BonePath{"a", "b/c"}.ID(),
		BonePath{}.ID(),
	}
	seen := make(map[BoneID]int)
	for i, id := range ids {
		if j, dup := seen[id]; dup {
			t.Fatalf("paths %d and %d collide", j, i)
		}
		seen[id] = i
	}
}

func TestBonePathHelpers(t *testing.T) {
	p := BonePath{"Body", "Right Arm Upper", "Right Arm Lower"}

	assert.Equal(t, "Body/Right Arm Upper/Right Arm Lower", p.String())
	assert.True(t, p.Equal(BonePath{"Body", "Right Arm Upper", "Right Arm Lower"}))
	assert.False(t, p.Equal(p.Prefix(2)))
	assert.Equal(t, BonePath{"Body"}, p.Prefix(1))
	assert.Equal(t, p, p.Prefix(10))
	assert.Equal(t, BonePath{}, p.Prefix(-1))
	assert.True(t, p.Prefix(2).IsPrefixOf(p))
	assert.False(t, p.IsPrefixOf(p.Prefix(2)))

	extended := p.Prefix(1).Append("Head")
	assert.Equal(t, BonePath{"Body", "Head"}, extended)
	assert.Equal(t, BonePath{"Body", "Right Arm Upper", "Right Arm Lower"}, p, "Append must not alias")
}
