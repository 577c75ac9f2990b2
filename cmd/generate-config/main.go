package main

import (
	"fmt"
	"os"

	"github.com/debemdeboas/homestead/internal/config"
	"gopkg.in/yaml.v3"
)

const header = "# Homestead Configuration Example\n" +
	"# Copy this file to config.yaml and customize as needed.\n" +
	"# Secrets (S3 keys, Ed25519 public key, Clerk key, Redis password) are read from the environment or .env.\n\n"

func main() {
	// Create a config with defaults applied
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	output := header + string(yamlData)

	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		fmt.Print(output)
		return
	}

	if err := os.WriteFile(outputFile, []byte(output), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
