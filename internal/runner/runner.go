package runner

import (
	"fmt"
	"io"
	"os"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	fileutil "github.com/projectdiscovery/utils/file"
	updateutils "github.com/projectdiscovery/utils/update"

	"github.com/glideshift/glideshift"
)

type Options struct {
	Code               string // source file to migrate; stdin when empty
	From               string // source client library name
	Output             string
	Report             string
	Config             string
	MigrationConfig    string
	GenerateConfig     string
	DisableUpdateCheck bool
	Verbose            bool
	Silent             bool
	// internal/unexported fields
	sourceCode string
}

// SourceCode returns the loaded input text.
func (o *Options) SourceCode() string {
	return o.sourceCode
}

func ParseFlags() *Options {
	opts := &Options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`Rewrites ioredis and node-redis source code to the valkey-glide client API.`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.Code, "code", "c", "", "source file to migrate (stdin if omitted)"),
		flagSet.StringVarP(&opts.From, "from", "f", "ioredis", "source client library (ioredis, node-redis)"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.Output, "output", "o", "", "output file to write migrated code"),
		flagSet.StringVarP(&opts.Report, "report", "r", "", "output file to write the yaml migration report"),
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "display verbose output"),
		flagSet.BoolVar(&opts.Silent, "silent", false, "display results only"),
		flagSet.CallbackVar(printVersion, "version", "display glideshift version"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&opts.Config, "config", "", `glideshift cli config file (default '$HOME/.config/glideshift/config.yaml')`),
		flagSet.StringVar(&opts.MigrationConfig, "mc", "", fmt.Sprintf(`migration rules config file (default '$HOME/.config/glideshift/migration_%v.yaml')`, version)),
		flagSet.StringVarP(&opts.GenerateConfig, "generate-config", "gc", "", "write a sample migration config to file and exit"),
	)

	flagSet.CreateGroup("update", "Update",
		flagSet.CallbackVarP(GetUpdateCallback(), "update", "up", "update glideshift to latest version"),
		flagSet.BoolVarP(&opts.DisableUpdateCheck, "disable-update-check", "duc", false, "disable automatic glideshift update check"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("Could not read flags: %s\n", err)
	}

	if opts.Config != "" {
		if err := flagSet.MergeConfigFile(opts.Config); err != nil {
			gologger.Error().Msgf("failed to read config file got %v", err)
		}
	}

	if opts.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	} else if opts.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	showBanner()

	if opts.GenerateConfig != "" {
		if err := glideshift.GenerateSample(opts.GenerateConfig); err != nil {
			gologger.Fatal().Msgf("failed to write sample config to %v got %v", opts.GenerateConfig, err)
		}
		gologger.Info().Msgf("sample migration config written to %v", opts.GenerateConfig)
		os.Exit(0)
	}

	if !opts.DisableUpdateCheck {
		latestVersion, err := updateutils.GetVersionCheckCallback("glideshift")()
		if err != nil {
			if opts.Verbose {
				gologger.Error().Msgf("glideshift version check failed: %v", err.Error())
			}
		} else {
			gologger.Info().Msgf("Current glideshift version %v %v", version, updateutils.GetVersionDescription(version, latestVersion))
		}
	}

	if opts.Code != "" {
		bin, err := os.ReadFile(opts.Code)
		if err != nil {
			gologger.Fatal().Msgf("failed to read %v got %v", opts.Code, err)
		}
		opts.sourceCode = string(bin)
	} else if fileutil.HasStdin() {
		bin, err := io.ReadAll(os.Stdin)
		if err != nil {
			gologger.Error().Msgf("failed to read input from stdin got %v", err)
		}
		opts.sourceCode = string(bin)
	}

	if opts.sourceCode == "" {
		gologger.Fatal().Msgf("glideshift: no input found")
	}

	return opts
}

func printVersion() {
	gologger.Info().Msgf("Current version: %s", version)
	os.Exit(0)
}
