package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewULIDSortable(t *testing.T) {
	prev := NewULID()
	for i := 0; i < 100; i++ {
		next := NewULID()
		assert.True(t, IsULID(next))
		assert.Less(t, prev, next)
		prev = next
	}
	assert.False(t, IsULID("not-a-ulid"))
}

func TestNewUUID(t *testing.T) {
	_, err := uuid.Parse(NewUUID())
	assert.NoError(t, err)
	assert.NotEqual(t, NewUUID(), NewUUID())
}
