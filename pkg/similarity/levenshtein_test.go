package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"express", "express", 0},
		{"express", "expresss", 1},
		{"lodash", "1odash", 1},
		{"react", "recat", 2},
		{"kitten", "sitting", 3},
		{"left-pad", "leftpad", 1},
		{"mongoose", "typescript", 9},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Distance(tc.a, tc.b, 0), "Distance(%q, %q)", tc.a, tc.b)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"express", "expresss"},
		{"lodash", "lodahs"},
		{"react", "vue"},
		{"", "chalk"},
		{"webpack", "webpck"},
	}

	for _, pair := range pairs {
		assert.Equal(t, Distance(pair[0], pair[1], 0), Distance(pair[1], pair[0], 0),
			"distance must be symmetric for %q / %q", pair[0], pair[1])
	}
}

func TestDistanceEmptyString(t *testing.T) {
	assert.Equal(t, 7, Distance("", "express", 0))
	assert.Equal(t, 7, Distance("express", "", 0))
}

func TestDistanceMaxDistance(t *testing.T) {
	// True distance below the cutoff: exact value is returned.
	assert.Equal(t, 1, Distance("express", "expresss", 3))
	assert.Equal(t, 2, Distance("react", "recat", 3))

	// True distance at or above the cutoff: result is >= cutoff.
	assert.GreaterOrEqual(t, Distance("kitten", "sitting", 2), 2)
	assert.GreaterOrEqual(t, Distance("mongoose", "typescript", 4), 4)

	// Length difference alone already exceeds the cutoff.
	assert.Equal(t, 8, Distance("ws", "underscore", 3))
}

func TestDistanceUnicode(t *testing.T) {
	assert.Equal(t, 1, Distance("héllo", "hello", 0))
	assert.Equal(t, 1, Distance("日本語", "日語", 0))
}
