package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/lox/weatherwidget/internal/config"
)

type CLI struct {
	Config config.Config `embed:""`

	Serve          ServeCmd          `cmd:"" default:"withargs" help:"Run the widget web server."`
	Lookup         LookupCmd         `cmd:"" help:"Look up the weather once and print it."`
	Preload        PreloadCmd        `cmd:"" help:"Check that every condition image is available at the asset origin."`
	GenerateAssets GenerateAssetsCmd `cmd:"" name:"generate-assets" help:"Generate missing condition images with OpenAI."`
}

// exitError carries a specific process exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: load .env: %v", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("weatherwidget"),
		kong.Description("Current conditions for your location or any place you search."),
		kong.UsageOnError(),
		kong.Bind(&cli.Config),
	)

	err := ctx.Run()
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		log.Print(exitErr.err)
		os.Exit(exitErr.code)
	}
	ctx.FatalIfErrorf(err)
}
