package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/khuwani/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag
		Serve   commands.ServeCmd   `cmd:"" help:"Start the khuwani API server"`
		Migrate commands.MigrateCmd `cmd:"" help:"Run database migrations and exit"`
		Seed    commands.SeedCmd    `cmd:"" help:"Load a YAML fixture file into the database"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
