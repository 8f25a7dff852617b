package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesKeys(t *testing.T) {
	assert.Equal(t, []string{"desktop", "mobile", "avatar"}, SeriesKeys())
	for _, key := range SeriesKeys() {
		s, ok := Get(key)
		require.True(t, ok, key)
		assert.NotEmpty(t, s.Subcategories, key)
	}
}

func TestSubcategoryValues(t *testing.T) {
	values := SubcategoryValues("desktop")
	assert.Contains(t, values, "风景")
	assert.Contains(t, values, "动漫")

	assert.NotContains(t, SubcategoryValues("avatar"), "游戏")
	assert.Empty(t, SubcategoryValues("tablet"))
}

func TestThirdLevel(t *testing.T) {
	assert.Contains(t, ThirdLevel("desktop", "风景"), "城市")
	assert.Contains(t, ThirdLevel("mobile", "动漫"), "海贼王")

	// Unknown pairs fall back to the catch-all.
	assert.Equal(t, []string{Fallback}, ThirdLevel("desktop", "不存在"))
	assert.Equal(t, []string{Fallback}, ThirdLevel("tablet", "风景"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("desktop", "风景"))
	assert.False(t, Valid("avatar", "风景"))
	assert.False(t, Valid("nope", "风景"))
}
