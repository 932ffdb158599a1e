package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherroom/cipherroom/internal/core"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"join room","room":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, EventJoinRoom, env.Type)

	_, err = DecodeEnvelope([]byte(`{"room":"abc"}`))
	assert.Error(t, err, "missing type must be rejected")

	_, err = DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeJoinRoom(t *testing.T) {
	p, err := DecodeJoinRoom([]byte(`{"type":"join room","room":"abc","publicKey":{"kty":"EC","x":"..."}}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", p.Room)
	assert.JSONEq(t, `{"kty":"EC","x":"..."}`, string(p.PublicKey))
}

func TestDecodeJoinRoomRejectsIncomplete(t *testing.T) {
	cases := map[string]string{
		"missing room": `{"type":"join room","publicKey":"k"}`,
		"missing key":  `{"type":"join room","room":"abc"}`,
		"room too long": `{"type":"join room","room":"` +
			strings.Repeat("x", 65) + `","publicKey":"k"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJoinRoom([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestDecodeChatMessage(t *testing.T) {
	p, err := DecodeChatMessage([]byte(`{"type":"chat message","room":"abc","encryptedMessage":[1,2,3]}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", p.Room)
	assert.JSONEq(t, `[1,2,3]`, string(p.EncryptedMessage))

	// The room field is advisory and may be absent.
	p, err = DecodeChatMessage([]byte(`{"type":"chat message","encryptedMessage":"blob"}`))
	require.NoError(t, err)
	assert.Empty(t, p.Room)

	_, err = DecodeChatMessage([]byte(`{"type":"chat message","room":"abc"}`))
	assert.Error(t, err, "missing payload must be rejected")
}

func TestOutboundWireNames(t *testing.T) {
	cases := []struct {
		want string
		v    any
	}{
		{`{"type":"existing public keys","keys":[]}`, NewExistingKeys(nil)},
		{`{"type":"public key","id":"A","publicKey":"k"}`, NewPublicKey("A", []byte(`"k"`))},
		{`{"type":"room full","room":"abc"}`, NewRoomFull("abc")},
		{`{"type":"chat message","id":"A","encryptedMessage":"m"}`, NewChatRelay("A", []byte(`"m"`))},
		{`{"type":"user left","id":"A"}`, NewUserLeft("A")},
		{`{"type":"error","error":"bad_payload"}`, NewError("bad_payload")},
	}
	for _, tc := range cases {
		b, err := Encode(tc.v)
		require.NoError(t, err)
		assert.JSONEq(t, tc.want, string(b))
	}
}

func TestExistingKeysEncodesEmptyListNotNull(t *testing.T) {
	b, err := Encode(NewExistingKeys([]core.KeyEntry{}))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"keys":[]`)
}

func TestPublicKeyPassesBlobThroughVerbatim(t *testing.T) {
	blob := []byte(`{"kty":"EC","crv":"P-256","x":"AQ","y":"Ag"}`)
	b, err := Encode(NewPublicKey("A", blob))
	require.NoError(t, err)
	assert.Contains(t, string(b), string(blob))
}
