package chain

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeypair(t *testing.T, dir, name string, acc types.Account) {
	t.Helper()
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o600))
}

func TestKeystoreResolve(t *testing.T) {
	dir := t.TempDir()
	acc := types.NewAccount()
	writeKeypair(t, dir, "buyer.json", acc)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("[1,2,3]"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	ks, err := LoadKeystore(dir, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, ks.Len())

	w, err := ks.Resolve(acc.PublicKey.ToBase58())
	require.NoError(t, err)
	assert.True(t, w.Connected())
	signer, ok := w.(Signer)
	require.True(t, ok)
	assert.Equal(t, acc.PublicKey, signer.Account().PublicKey)

	other := types.NewAccount().PublicKey.ToBase58()
	w, err = ks.Resolve(other)
	require.NoError(t, err)
	assert.False(t, w.Connected())
	assert.Equal(t, other, w.PublicKey())

	_, err = ks.Resolve("  ")
	assert.Error(t, err)
}

func TestLoadKeystoreMissingDir(t *testing.T) {
	ks, err := LoadKeystore(filepath.Join(t.TempDir(), "nope"), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, ks.Len())
}

func TestDecodeKeypairJSON(t *testing.T) {
	_, err := DecodeKeypairJSON([]byte("not json"))
	assert.Error(t, err)

	ints := make([]int, 64)
	ints[3] = 300
	raw, _ := json.Marshal(ints)
	_, err = DecodeKeypairJSON(raw)
	assert.Error(t, err)
}
