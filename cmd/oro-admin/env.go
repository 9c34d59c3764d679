package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"oro/internal/backend"
	"oro/internal/config"
)

// opener builds the stores a command works on, along with the display time
// zone.
type opener func(ctx context.Context) (*backend.BackendResult, *time.Location, error)

func commands(open opener) []subcommands.Command {
	return []subcommands.Command{
		&setCodeCmd{open: open},
		&exportCmd{open: open},
		&summaryCmd{open: open},
	}
}

// openBackend reads the same environment as the server so the tool acts on
// the server's database.
func openBackend(ctx context.Context) (*backend.BackendResult, *time.Location, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(nil).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	return res, cfg.Location(), nil
}
