package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddTagIsIdempotentAndQueryableBothWays(t *testing.T) {
	s := New()
	s.AddTag("Enemy", "hostile")
	s.AddTag("Enemy", "hostile")
	s.AddTag("Enemy", "flying")
	s.AddTag("Bird", "flying")

	assert.True(t, s.HasTag("Enemy", "hostile"))
	assert.True(t, s.HasTag("Enemy", "flying"))
	assert.False(t, s.HasTag("Enemy", "aquatic"))
	assert.False(t, s.HasTag("Unknown", "hostile"))

	assert.ElementsMatch(t, []string{"hostile", "flying"}, s.TagsOf("Enemy"))
	assert.ElementsMatch(t, []string{"flying"}, s.TagsOf("Bird"))
	assert.ElementsMatch(t, []string{"Enemy", "Bird"}, s.ObjectsTagged("flying"))
	assert.ElementsMatch(t, []string{"Enemy"}, s.ObjectsTagged("hostile"))
}

func TestQueriesOnUntaggedNamesReturnEmpty(t *testing.T) {
	s := New()
	assert.Empty(t, s.TagsOf("Nothing"))
	assert.Empty(t, s.ObjectsTagged("nothing"))
	assert.False(t, s.HasTag("Nothing", "whatever"))
}
