package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/idilsaglam/basket/internal/cli"
	"github.com/idilsaglam/basket/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	configPath := flag.String("config", "", "config file (default ~/.config/basket/config.toml)")
	dataFile := flag.String("file", "", "list file (overrides data_file)")
	theme := flag.String("theme", "", "one of "+strings.Join(ui.Themes, ", ")+" (overrides theme)")
	seedURL := flag.String("seed", "", "remote list to start from when there is no list file")
	showAll := flag.Bool("all", false, "include items with zero quantity")
	flag.Usage = cli.PrintHelp
	flag.Parse()

	// No subcommand opens the interactive list.
	code := cli.Run(flag.Args(), cli.Options{
		ConfigPath: *configPath,
		DataFile:   *dataFile,
		Theme:      *theme,
		SeedURL:    *seedURL,
		ShowAll:    *showAll,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
