package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/projectdiscovery/gologger"

	"github.com/glideshift/glideshift"
	"github.com/glideshift/glideshift/internal/runner"
)

func main() {
	cliOpts := runner.ParseFlags()

	migratorOpts := &glideshift.Options{}
	if cliOpts.MigrationConfig != "" {
		config, err := glideshift.NewConfig(cliOpts.MigrationConfig)
		if err != nil {
			gologger.Fatal().Msgf("failed to read %v file got: %v", cliOpts.MigrationConfig, err)
		}
		migratorOpts.Config = config
	}

	m, err := glideshift.New(migratorOpts)
	if err != nil {
		gologger.Fatal().Msgf("failed to build migrator got %v", err)
	}

	src := &glideshift.Source{
		Code: cliOpts.SourceCode(),
		From: glideshift.Client(cliOpts.From),
	}

	result, err := m.Migrate(src)
	if err != nil {
		var verr *glideshift.ValidationError
		if errors.As(err, &verr) {
			gologger.Fatal().Msgf("invalid input (%v): %v", strings.Join(verr.Fields, ", "), verr.Message)
		}
		gologger.Fatal().Msgf("migration failed: %v", err)
	}

	for _, warning := range result.Warnings {
		gologger.Warning().Msgf("%v", warning)
	}
	for _, note := range result.Notes {
		gologger.Info().Msgf("%v", note)
	}

	output := getOutputWriter(cliOpts.Output)
	defer closeOutput(output, cliOpts.Output)

	if _, err := output.Write([]byte(result.TransformedCode)); err != nil {
		gologger.Error().Msgf("failed to write output got %v", err)
	}

	if cliOpts.Report != "" {
		if err := glideshift.WriteReport(cliOpts.Report, src, result); err != nil {
			gologger.Error().Msgf("failed to write report to %v got %v", cliOpts.Report, err)
		}
	}
}

// getOutputWriter returns the appropriate output writer
func getOutputWriter(outputPath string) io.Writer {
	if outputPath != "" {
		fs, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			gologger.Fatal().Msgf("failed to open output file %v got %v", outputPath, err)
		}
		return fs
	}
	return os.Stdout
}

// closeOutput closes the output writer if it's a file
func closeOutput(output io.Writer, outputPath string) {
	if outputPath != "" {
		if closer, ok := output.(io.Closer); ok {
			closer.Close()
		}
	}
}
