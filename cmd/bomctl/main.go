package main

import (
	"log"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/wierzcho/ravacan/internal/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

type Command struct {
	Verbose bool `help:"Enable debug logging." short:"v"`

	Validate ValidateCmd `cmd:"" help:"Validate a BOM file without importing it."`
	Import   ImportCmd   `cmd:"" help:"Import a BOM file."`
	Show     ShowCmd     `cmd:"" help:"Print an imported BOM as a tree."`
	Export   ExportCmd   `cmd:"" help:"Export a BOM subtree to xlsx."`
	Template TemplateCmd `cmd:"" help:"Write an empty import template."`
	Source   SourceCmd   `cmd:"" help:"Download an archived source file."`
	Version  VersionCmd  `cmd:"" help:"Print version information."`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	command := new(Command)
	ctx := kong.Parse(
		command,
		kong.Name("bomctl"),
		kong.Description("BOM import and inspection tool"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	ctx.FatalIfErrorf(err)

	app, err := NewApp(cfg, command.Verbose)
	ctx.FatalIfErrorf(err)
	defer app.Close()

	ctx.FatalIfErrorf(ctx.Run(app))
}
