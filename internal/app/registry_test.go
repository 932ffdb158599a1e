package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryBindUnbind(t *testing.T) {
	r := NewRegistry()
	s := &fakeSender{}

	r.Bind("a", s, nil)
	got, ok := r.Get("a")
	assert.True(t, ok)
	assert.Same(t, s, got.(*fakeSender))
	assert.Equal(t, 1, r.Len())

	r.Unbind("a")
	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())

	// Unbinding twice is harmless.
	r.Unbind("a")
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	canceled := make(map[string]bool)

	r.Bind("a", &fakeSender{}, func() { canceled["a"] = true })
	r.Bind("b", &fakeSender{}, func() { canceled["b"] = true })

	assert.True(t, r.Cancel("a"))
	assert.True(t, canceled["a"])
	assert.False(t, canceled["b"])
	assert.False(t, r.Cancel("ghost"))

	r.CancelAll()
	assert.True(t, canceled["b"])
}
