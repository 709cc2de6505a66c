package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarsPercent(t *testing.T) {
	cases := []struct {
		stars   float64
		percent int
	}{
		{0, 0},
		{2.5, 50},
		{4.2, 84},
		{5, 100},
		{0.5, 10},
		{4.75, 95},
	}

	for _, tc := range cases {
		pct, err := StarsPercent(tc.stars)
		require.NoError(t, err, "stars=%v", tc.stars)
		assert.Equal(t, tc.percent, pct, "stars=%v", tc.stars)
		assert.GreaterOrEqual(t, pct, 0)
		assert.LessOrEqual(t, pct, 100)
	}
}

func TestStarsPercentOutOfRange(t *testing.T) {
	_, err := StarsPercent(-0.1)
	assert.Error(t, err)

	_, err = StarsPercent(5.1)
	assert.Error(t, err)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 1.0, Confidence(0))
	assert.Equal(t, 1.0, Confidence(-3))
	assert.Equal(t, 1.0, Confidence(1))
	assert.Equal(t, 2.0, Confidence(4))
	assert.Equal(t, 10.0, Confidence(100))
}

func TestThumb(t *testing.T) {
	assert.Equal(t, 100, ThumbPercent(true))
	assert.Equal(t, 0, ThumbPercent(false))
	assert.Equal(t, "true", ThumbRaw(true))
	assert.Equal(t, "false", ThumbRaw(false))
}
