package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_RegisterGetRemove(t *testing.T) {
	table := NewTable()
	s := &Session{id: "sess1"}

	table.Register(s.id, s)
	assert.Equal(t, 1, table.Count())

	got, ok := table.Get("sess1")
	assert.True(t, ok)
	assert.Same(t, s, got)

	table.Remove("sess1")
	assert.Equal(t, 0, table.Count())

	_, ok = table.Get("sess1")
	assert.False(t, ok)
}
