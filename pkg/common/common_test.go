package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDint64Unique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		assert.Positive(t, id)
		assert.False(t, seen[id], "ids must be unique")
		seen[id] = true
	}
}

func TestIfEmptyStr(t *testing.T) {
	assert.Equal(t, "fallback", IfEmptyStr("", "fallback"))
	assert.Equal(t, "value", IfEmptyStr("value", "fallback"))
}

func TestSha256HashWithSalt(t *testing.T) {
	a := Sha256HashWithSalt("secret", "salt1")
	b := Sha256HashWithSalt("secret", "salt2")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Sha256HashWithSalt("secret", "salt1"))
	assert.Len(t, a, 64)
}
