package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters_PositionalOrder(t *testing.T) {
	p := NewParameters()
	p.Put(Int(1))
	p.Put(String("two"))

	require.Equal(t, 2, p.Len())
	v, ok := p.At(0)
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Driver())
	v, ok = p.At(1)
	require.True(t, ok)
	assert.Equal(t, "two", v.Driver())

	_, ok = p.At(2)
	assert.False(t, ok)
	assert.Equal(t, "", p.NameAt(0))
}

func TestParameters_NamedOverwriteKeepsPosition(t *testing.T) {
	p := NewParameters()
	p.PutNamed("id", Int(1))
	p.PutNamed("name", String("a"))
	p.PutNamed("id", Int(9))

	require.Equal(t, 2, p.Len())
	v, ok := p.Get("id")
	require.True(t, ok)
	assert.Equal(t, int64(9), v.Driver())

	v, ok = p.At(0)
	require.True(t, ok)
	assert.Equal(t, int64(9), v.Driver())
	assert.Equal(t, "id", p.NameAt(0))
	assert.Equal(t, "name", p.NameAt(1))
}

func TestParameters_Mixed(t *testing.T) {
	p := NewParameters()
	p.Put(Long(5))
	p.PutNamed("flag", String("y"))

	assert.Equal(t, 2, p.Len())
	_, ok := p.Get("missing")
	assert.False(t, ok)
	v, ok := p.At(1)
	require.True(t, ok)
	assert.Equal(t, "y", v.Raw())
}

func TestParameters_NilSafe(t *testing.T) {
	var p *Parameters
	assert.Equal(t, 0, p.Len())
	_, ok := p.At(0)
	assert.False(t, ok)
	_, ok = p.Get("x")
	assert.False(t, ok)

	var zero Parameters
	zero.PutNamed("k", Int(1))
	v, ok := zero.Get("k")
	require.True(t, ok)
	assert.Equal(t, TypeInt, v.Type())
}
