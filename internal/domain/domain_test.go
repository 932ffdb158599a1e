package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomIDValidate(t *testing.T) {
	assert.NoError(t, RoomID("abc").Validate())
	assert.ErrorIs(t, RoomID("").Validate(), ErrRoomIDEmpty)
	assert.ErrorIs(t, RoomID(strings.Repeat("x", MaxRoomIDLen+1)).Validate(), ErrRoomIDTooLong)
}

func TestNewMember(t *testing.T) {
	m, err := NewMember("conn-1", []byte(`"key"`))
	require.NoError(t, err)
	assert.Equal(t, ConnID("conn-1"), m.ID)
	assert.JSONEq(t, `"key"`, string(m.PublicKey))

	_, err = NewMember("conn-1", nil)
	assert.ErrorIs(t, err, ErrPublicKeyEmpty)
}
