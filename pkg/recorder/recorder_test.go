package recorder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.InitLogger()
}

const ts = "2025-04-02 08:05:07"

func TestNewDoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	r := New(path)

	assert.Equal(t, path, r.Path())
	assert.Zero(t, r.Len())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAppendPersistsEveryRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallets.json")
	r := New(path)

	require.NoError(t, r.Append(Succeeded("0xabc", "0xkey", "word word", "tok", ts)))
	assert.Len(t, readRecords(t, path), 1)

	require.NoError(t, r.Append(Failed("challenge failed", ts)))
	got := readRecords(t, path)
	require.Len(t, got, 2)
	assert.Equal(t, "0xabc", *got[0].Address)
	assert.Equal(t, "challenge failed", got[1].Error)

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJSONShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	r := New(path)
	require.NoError(t, r.Append(Succeeded("0xabc", "0xkey", "", "tok", ts)))
	require.NoError(t, r.Append(Failed("boom", ts)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)

	ok := raw[0]
	assert.Equal(t, "0xabc", ok["address"])
	assert.Equal(t, "0xkey", ok["privateKey"])
	assert.Contains(t, ok, "mnemonic")
	assert.Nil(t, ok["mnemonic"])
	assert.Equal(t, "tok", ok["token"])
	assert.Equal(t, "success", ok["signupStatus"])
	assert.Equal(t, "success", ok["faucetStatus"])
	assert.NotContains(t, ok, "error")
	assert.Equal(t, ts, ok["timestamp"])

	failed := raw[1]
	for _, key := range []string{"address", "privateKey", "mnemonic", "token"} {
		assert.Contains(t, failed, key)
		assert.Nil(t, failed[key], key)
	}
	assert.Equal(t, "failed", failed["signupStatus"])
	assert.Equal(t, "failed", failed["faucetStatus"])
	assert.Equal(t, "boom", failed["error"])

	// two-space indentation
	assert.Contains(t, string(data), "[\n  {\n    \"address\": \"0xabc\"")
}

func TestCounts(t *testing.T) {
	r := New("")
	require.NoError(t, r.Append(Succeeded("0x1", "k", "m", "t", ts)))
	require.NoError(t, r.Append(Failed("a", ts)))
	require.NoError(t, r.Append(Failed("", ts)))

	success, failed := r.Counts()
	assert.Equal(t, 1, success)
	assert.Equal(t, 2, failed)
	assert.Equal(t, "unknown error", r.Records()[2].Error)
}

func TestRecordsReturnsCopy(t *testing.T) {
	r := New("")
	require.NoError(t, r.Append(Failed("a", ts)))
	recs := r.Records()
	recs[0].Error = "changed"
	assert.Equal(t, "a", r.Records()[0].Error)
}

func TestAppendUnwritablePath(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing", "wallets.json"))
	err := r.Append(Failed("a", ts))
	assert.Error(t, err)
	assert.Equal(t, 1, r.Len(), "record is kept in memory even when the write fails")
}

func readRecords(t *testing.T, path string) []ClaimRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []ClaimRecord
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
