// Command routecast reconstructs the route history of monitored Internet
// paths from traceroute logs and forecasts route lifetime, route changes
// and latency for each path.
//
// Usage:
//
//	routecast [features|train|predict|serve] [flags]
//
// Every regular file in the input directory is the probe log of one path.
// Files whose name starts with a dot are skipped.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/routecast/internal/config"
	"github.com/banshee-data/routecast/internal/version"
)

const (
	cmdFeatures = "features"
	cmdTrain    = "train"
	cmdPredict  = "predict"
	cmdServe    = "serve"
)

const defaultInputDir = "input/observationPaths"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	command := cmdTrain
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	switch command {
	case cmdFeatures, cmdTrain, cmdPredict:
		return runAnalysis(command, args, stdout, stderr)
	case cmdServe:
		return runServe(args, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return 0
	case "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: routecast <command> [flags]

commands:
  features   parse every path log and write the diagnostic feature logs
  train      features, then fit the forecast models and store the results (default)
  predict    train, then write a forecast file for every path
  serve      serve the results database over the debug SQL console
  version    print build information

run "routecast <command> -h" for the flags of a command
`)
}

// analysisFlags are the flags shared by the analysis commands.
type analysisFlags struct {
	observation float64
	timeslot    float64
	configPath  string
	inputDir    string
	dbPath      string
	plotDir     string
	metric      string
	showVersion bool
}

func newAnalysisFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *analysisFlags) {
	f := &analysisFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Float64Var(&f.observation, "o", 0, "Duration in hours of the observation time spanned by the training samples (default from config)")
	fs.Float64Var(&f.timeslot, "t", 0, "Duration in hours of a timeslot (default from config)")
	fs.StringVar(&f.configPath, "config", "", "Path to a JSON analysis config; built-in defaults when empty")
	fs.StringVar(&f.inputDir, "input", defaultInputDir, "Directory holding one probe log per path")
	fs.StringVar(&f.dbPath, "db", "", "SQLite results database (overrides config db_path)")
	fs.StringVar(&f.plotDir, "plots", "", "Directory for route plots and slot charts (overrides config plot_dir)")
	fs.StringVar(&f.metric, "metric", "", "RTT statistic used for latency features: min, avg, max or mdev (overrides config)")
	fs.BoolVar(&f.showVersion, "version", false, "Print version information and exit")
	return fs, f
}

// loadConfig reads the config file (or the defaults) and applies the
// flags that were set explicitly.
func (f *analysisFlags) loadConfig(fs *flag.FlagSet) (*config.AnalysisConfig, error) {
	cfg := config.DefaultAnalysisConfig()
	if f.configPath != "" {
		loaded, err := config.LoadAnalysisConfig(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	var err error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "o":
			if f.observation <= 0 {
				err = fmt.Errorf("the observation time and the duration of the timeslots must be strictly higher than 0")
			}
			cfg.SetObservationHours(f.observation)
		case "t":
			if f.timeslot <= 0 {
				err = fmt.Errorf("the observation time and the duration of the timeslots must be strictly higher than 0")
			}
			cfg.SetTimeslotHours(f.timeslot)
		case "db":
			cfg.SetDBPath(f.dbPath)
		case "plots":
			cfg.SetPlotDir(f.plotDir)
		case "metric":
			cfg.SetRTTMetric(f.metric)
		}
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runAnalysis(command string, args []string, stdout, stderr io.Writer) int {
	fs, f := newAnalysisFlagSet(command, stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if f.showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	cfg, err := f.loadConfig(fs)
	if err != nil {
		log.Printf("error: %v", err)
		return 1
	}

	p, err := newProcessor(command, cfg, stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return 1
	}
	defer p.Close()

	sum, err := p.processDir(f.inputDir)
	if err != nil {
		log.Printf("error: %v", err)
		return 1
	}
	log.Printf("%s: %d paths processed, %d skipped", command, sum.processed, sum.failed)
	if sum.failed > 0 {
		return 1
	}
	return 0
}
