package config

import (
	"flag"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmenning/asu-calculator/internal/chain"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseSettings_Defaults(t *testing.T) {
	s, err := ParseSettings(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, "asu_inventory.json", s.InventoryPath)
	assert.Equal(t, "data", s.DataDir)
	assert.Equal(t, int64(1), s.Target)
	assert.False(t, s.DisableDB)
	assert.Equal(t, ":8080", s.Addr)
	assert.Equal(t, filepath.Join("data", "history"), s.HistoryDir())
	assert.Equal(t, filepath.Join("data", "index.db"), s.IndexPath())
}

func TestParseSettings_EnvSeedsFlags(t *testing.T) {
	t.Setenv("ASU_INVENTORY", "/tmp/inv.json")
	t.Setenv("ASU_TARGET", "3")
	t.Setenv("ASU_DISABLE_DB", "true")

	s, err := ParseSettings(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/inv.json", s.InventoryPath)
	assert.Equal(t, int64(3), s.Target)
	assert.True(t, s.DisableDB)

	s, err = ParseSettings(newFlagSet(), []string{"-target", "5", "-json"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), s.Target)
	assert.True(t, s.JSON)
}

func TestParseSettings_Rejects(t *testing.T) {
	_, err := ParseSettings(newFlagSet(), []string{"-target", "0"})
	assert.Error(t, err)

	t.Setenv("ASU_TARGET", "many")
	_, err = ParseSettings(newFlagSet(), nil)
	assert.ErrorContains(t, err, "parse env:")
}

func TestSettings_Chain(t *testing.T) {
	cfg, err := Settings{}.Chain()
	require.NoError(t, err)
	assert.Equal(t, chain.Default(), cfg)

	cfg, err = Settings{ChainPath: filepath.Join("..", "..", "configs", "chain.yaml")}.Chain()
	require.NoError(t, err)
	assert.Equal(t, chain.Default().Digest(), cfg.Digest())

	_, err = Settings{ChainPath: "does-not-exist.yaml"}.Chain()
	assert.ErrorContains(t, err, "load chain")
}
