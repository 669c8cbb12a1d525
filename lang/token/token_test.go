package token_test

import (
	"testing"

	"github.com/ravener/clox/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "and", token.AND.String())
	assert.Equal(t, "(", token.LPAREN.String())
	assert.Equal(t, "unknown token", token.Kind(127).String())
}

func TestKeywords(t *testing.T) {
	for word, kind := range token.Keywords {
		got, ok := token.Keywords[word]
		require.True(t, ok)
		assert.Equal(t, kind, got)
	}
	_, ok := token.Keywords["notakeyword"]
	assert.False(t, ok)
}
