package main

import (
	"flag"
	"fmt"
	"os"

	"festmap/internal/di"
	"festmap/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the yaml config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "duplicate logs to stderr")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "festmap: %s\n", err)
		os.Exit(1)
	}
}
