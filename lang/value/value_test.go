package value_test

import (
	"testing"

	"github.com/ravener/clox/lang/value"
	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    value.Value
		want bool
	}{
		{value.Nil{}, false},
		{value.Bool(false), false},
		{value.Bool(true), true},
		{value.Number(0), true},
		{value.Number(-1), true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, value.Truthy(c.v))
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(value.Nil{}, value.Nil{}))
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Number(2)))
	assert.False(t, value.Equal(value.Bool(true), value.Nil{}))
	assert.True(t, value.Equal(value.Bool(true), value.Bool(true)))
}

func TestTypeNamesAndStrings(t *testing.T) {
	assert.Equal(t, "nil", value.Nil{}.TypeName())
	assert.Equal(t, "boolean", value.Bool(true).TypeName())
	assert.Equal(t, "number", value.Number(1).TypeName())
	assert.Equal(t, "true", value.Bool(true).String())
	assert.Equal(t, "false", value.Bool(false).String())
	assert.Equal(t, "3.5", value.Number(3.5).String())
}
