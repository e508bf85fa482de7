package cli

import (
	"fmt"
	"os"

	"github.com/lucasnoah/mend/internal/bugmemory"
	"github.com/lucasnoah/mend/internal/config"
	"github.com/lucasnoah/mend/internal/db"
)

var configFile string

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.LoadDefault()
}

// openDB opens the run-history database and applies migrations. The caller
// must invoke cleanup when done.
func openDB(cfg *config.Config) (*db.DB, func(), error) {
	path := cfg.DB.Path
	if path == "" {
		var err error
		path, err = db.DefaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	d, err := db.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, nil, fmt.Errorf("migrate db: %w", err)
	}
	return d, func() { d.Close() }, nil
}

// openMemory opens the bug memory log at the configured path.
func openMemory(cfg *config.Config) (*bugmemory.Memory, error) {
	path := cfg.Memory.Path
	if path == "" {
		var err error
		path, err = bugmemory.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve memory path: %w", err)
		}
	}
	return bugmemory.New(path)
}

// githubToken resolves the PR token from config or environment.
func githubToken(cfg *config.Config) string {
	if cfg.PR.Token != "" {
		return cfg.PR.Token
	}
	return os.Getenv("GITHUB_TOKEN")
}
