package main

import (
	"fmt"
	"os"

	"github.com/debemdeboas/inkwell/internal/config"
	"gopkg.in/yaml.v3"
)

func main() {
	// Create a config with defaults applied
	cfg := config.Default()

	// Marshal to YAML
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	header := "# inkwell configuration example\n" +
		"# Copy this file to config.yaml and customize as needed.\n" +
		"# " + config.EnvAPIURL + ", " + config.EnvToken + " and the S3 key variables override the file.\n\n"
	output := header + string(yamlData)

	// Write to file or stdout
	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, config.ErrWriteConfigContentFmt+"\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
