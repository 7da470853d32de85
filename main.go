package main

import (
	"flag"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile = flag.String("config", "problem.yaml", "Path to the YAML problem file")
	outputFile = flag.String("output", "", "Write the JSON summary to this file instead of stdout")
	verbose    = flag.Bool("verbose", false, "Include per-cell weights and areas in the summary")
)

func main() {
	flag.Parse()
	log.Printf("sdot-init version: %s", Version)

	summary, err := run(*configFile, *verbose)
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}

	out := os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			log.Fatalf("Error creating output file %s: %v", *outputFile, err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Warning: error closing output file %s: %v", *outputFile, err)
			}
		}()
		out = f
	}

	if err := writeSummary(out, summary); err != nil {
		log.Fatalf("Error writing summary: %v", err)
	}
}
