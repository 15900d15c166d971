package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisScriptsInitialized(t *testing.T) {
	// Scripts are only exercised against a live Redis; check they are wired.
	assert.NotEmpty(t, incrementScript.Hash())
	assert.NotEmpty(t, decrementScript.Hash())
	assert.NotEqual(t, incrementScript.Hash(), decrementScript.Hash())
}

func TestNewRedisStore_RequiresClient(t *testing.T) {
	_, err := NewRedisStore(nil)
	assert.Error(t, err)
}
