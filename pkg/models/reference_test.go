package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSourceRef(t *testing.T) {
	ref, err := DecodeSourceRef(`{"name": "clicks", "version": 1}`)
	require.NoError(t, err)
	assert.Equal(t, SourceRef{Name: "clicks", Version: "1"}, ref)
	assert.Equal(t, "clicks:1", ref.String())

	_, err = DecodeSourceRef(`{"name": "clicks"}`)
	assert.ErrorIs(t, err, errMissingVersion)

	_, err = DecodeSourceRef(`{"name": `)
	assert.Error(t, err)
}

func TestDecodeEntityRef(t *testing.T) {
	ref, err := DecodeEntityRef(`{"name": "user", "join_keys": "ignored"}`)
	require.NoError(t, err)
	assert.Equal(t, "user", ref.Name)

	_, err = DecodeEntityRef(`{}`)
	assert.ErrorIs(t, err, errMissingName)

	_, err = DecodeEntityRef("")
	assert.ErrorIs(t, err, errMissingName)
}
