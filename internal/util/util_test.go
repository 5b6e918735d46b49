package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMethodForDID(t *testing.T) {
	t.Run("DSNP DID", func(tt *testing.T) {
		method, err := GetMethodForDID("did:dsnp:13972")
		assert.NoError(tt, err)
		assert.Equal(tt, "dsnp", string(method))
	})

	t.Run("Too few parts", func(tt *testing.T) {
		_, err := GetMethodForDID("did:dsnp")
		assert.ErrorContains(tt, err, "fewer than three parts")
	})

	t.Run("Wrong scheme", func(tt *testing.T) {
		_, err := GetMethodForDID("dsnp:key:13972")
		assert.ErrorContains(tt, err, "must start with `did`")
	})
}

func TestSanitizeLog(t *testing.T) {
	assert.Equal(t, "did:dsnp:1injected", SanitizeLog("did:dsnp:1\r\ninjected"))
}

func TestIs2xxResponse(t *testing.T) {
	assert.True(t, Is2xxResponse(200))
	assert.True(t, Is2xxResponse(204))
	assert.False(t, Is2xxResponse(301))
	assert.False(t, Is2xxResponse(500))
}
