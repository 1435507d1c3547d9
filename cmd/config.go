package cmd

import (
	"github.com/BugBuster18/Agentic-File-Recommender/internal/app"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/config"
)

// openApp loads config.yaml (overlaid on defaults, per internal/config's
// "missing file is not an error" contract) and applies the --data-dir
// override, then wires the core.
func openApp() (*app.App, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	return app.Open(cfg, logger)
}
