package config

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/cmenning/asu-calculator/internal/chain"
)

type envSettings struct {
	InventoryPath string `env:"ASU_INVENTORY" envDefault:"asu_inventory.json"`
	ChainPath     string `env:"ASU_CHAIN"`
	DataDir       string `env:"ASU_DATA_DIR" envDefault:"data"`
	Target        int64  `env:"ASU_TARGET" envDefault:"1"`
	DisableDB     bool   `env:"ASU_DISABLE_DB"`
	Addr          string `env:"ASU_ADDR" envDefault:":8080"`
}

// Settings are the process-level knobs shared by the binaries. Environment
// values seed the flag defaults; flags win.
type Settings struct {
	InventoryPath string
	ChainPath     string
	DataDir       string
	Target        int64
	DisableDB     bool
	Addr          string
	JSON          bool
}

// ParseSettings registers the shared flags on fs and parses args.
func ParseSettings(fs *flag.FlagSet, args []string) (Settings, error) {
	var e envSettings
	if err := ParseEnv(&e); err != nil {
		return Settings{}, err
	}
	s := Settings{
		InventoryPath: e.InventoryPath,
		ChainPath:     e.ChainPath,
		DataDir:       e.DataDir,
		Target:        e.Target,
		DisableDB:     e.DisableDB,
		Addr:          e.Addr,
	}

	fs.StringVar(&s.InventoryPath, "inventory", s.InventoryPath, "inventory snapshot file (default: ASU_INVENTORY or asu_inventory.json)")
	fs.StringVar(&s.ChainPath, "chain", s.ChainPath, "crafting chain yaml (default: ASU_CHAIN or built-in table)")
	fs.StringVar(&s.DataDir, "data", s.DataDir, "directory for history, index and archives (default: ASU_DATA_DIR or data)")
	fs.Int64Var(&s.Target, "target", s.Target, "number of final items to plan for")
	fs.BoolVar(&s.DisableDB, "disable-db", s.DisableDB, "skip the sqlite history index")
	fs.StringVar(&s.Addr, "addr", s.Addr, "listen address for the report server")
	fs.BoolVar(&s.JSON, "json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return Settings{}, err
	}
	if s.Target < 1 {
		return Settings{}, errors.New("-target must be >= 1")
	}
	if s.InventoryPath == "" {
		return Settings{}, errors.New("-inventory must not be empty")
	}
	return s, nil
}

// Chain loads the configured crafting table, or the built-in one when no
// path is set.
func (s Settings) Chain() (*chain.Config, error) {
	if s.ChainPath == "" {
		return chain.Default(), nil
	}
	cfg, err := chain.Load(s.ChainPath)
	if err != nil {
		return nil, fmt.Errorf("load chain: %w", err)
	}
	return cfg, nil
}

func (s Settings) HistoryDir() string { return filepath.Join(s.DataDir, "history") }

func (s Settings) IndexPath() string { return filepath.Join(s.DataDir, "index.db") }
