package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "", Join())
	assert.Equal(t, "", Join(""))
	assert.Equal(t, "nlq.", Join("nlq"))
	assert.Equal(t, "nlq.cache.", Join("nlq.", "cache"))
	assert.Equal(t, "a.b.", Join("a", "", "b"))
}
