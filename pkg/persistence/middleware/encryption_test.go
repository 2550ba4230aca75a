package middleware

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/taproot/pkg/value"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestEncryption_RoundTrip(t *testing.T) {
	inner := &mockStore{}
	store := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)})(inner)
	ctx := context.Background()

	snap := value.Object{
		"callsign": value.String("W1AW"),
		"freq":     value.Int(100000000),
	}
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, value.Equal(snap, loaded))
}

func TestEncryption_StoredDocumentIsOpaque(t *testing.T) {
	inner := &mockStore{}
	store := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)})(inner)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, value.Object{"secret": value.String("hunter2")}))

	obj, ok := inner.saved.(value.Object)
	require.True(t, ok, "store should receive an envelope object")
	assert.Len(t, obj, 1)
	_, ok = obj[envelopeKey].(value.String)
	assert.True(t, ok, "envelope should hold only the ciphertext")

	// Nothing of the plaintext may leak into the stored bytes.
	data, err := value.Encode(inner.saved)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.NotContains(t, string(data), "secret")
}

func TestEncryption_KeyRotation(t *testing.T) {
	inner := &mockStore{}
	ctx := context.Background()
	snap := value.Object{"freq": value.Int(7)}

	// Written under the old key.
	oldStore := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)})(inner)
	require.NoError(t, oldStore.Save(ctx, snap))

	// Read back with a new active key and the old one as fallback.
	rotated := NewEncryptionMiddleware(EncryptionConfig{
		ActiveKey:    testKey(2),
		FallbackKeys: [][]byte{testKey(1)},
	})(inner)

	loaded, err := rotated.Load(ctx)
	require.NoError(t, err)
	assert.True(t, value.Equal(snap, loaded))

	// Without the fallback the load must fail, not return garbage.
	strict := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(2)})(inner)
	_, err = strict.Load(ctx)
	assert.Error(t, err)
}

func TestEncryption_PlainDocumentRejected(t *testing.T) {
	inner := &mockStore{}
	ctx := context.Background()
	require.NoError(t, inner.Save(ctx, value.Object{"freq": value.Int(7)}))

	store := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)})(inner)
	_, err := store.Load(ctx)
	assert.Error(t, err, "a plain stored document must not pass through configured encryption")
}

func TestEncryption_ShortKeyPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewEncryptionMiddleware(EncryptionConfig{ActiveKey: []byte("short")})
	})
}
