package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"emergents/internal/config"
	"emergents/internal/logging"
	"emergents/pkg/emergents"
)

const envPrefix = "EMERGENTS"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "emergentsctl",
		Short:         "Evolve populations of segmented genomes under neutral mutation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRunCmd(),
		newExperimentCmd(),
		newRunsCmd(),
		newHistoryCmd(),
		newExportCmd(),
		newPlotCmd(),
		newDemoCmd(),
		newConfigCmd(),
	)
	return root
}

// simulationFlags are the per-run overrides shared by run and experiment.
// Each flag is bound to the configuration key it overrides.
var simulationFlags = []struct {
	name  string
	key   string
	usage string
	kind  string
}{
	{"seed", "population.seed", "random seed", "int64"},
	{"population", "population.size", "population size", "int"},
	{"mutation-rate", "population.mutation_rate", "per-base mutation rate", "float"},
	{"workers", "population.workers", "parallel workers per generation", "int"},
	{"selector", "population.selector", "parent selector: uniform|tournament|tournament_short", "string"},
	{"circular", "genome.circular", "circular genome", "bool"},
	{"generations", "evolution.generations", "generations to run", "int"},
	{"report-interval", "evolution.report_interval", "log statistics every n generations", "int"},
	{"progress", "evolution.show_progress", "show a progress bar", "bool"},
	{"plot", "evolution.enable_plotting", "write PNG plots", "bool"},
	{"artifacts-dir", "evolution.artifacts_dir", "artifacts directory", "string"},
	{"store", "storage.backend", "store backend: memory|sqlite|badger", "string"},
	{"db-path", "storage.path", "database path for sqlite or badger", "string"},
	{"log-level", "logging.level", "log level: debug|info|warn|error", "string"},
	{"log-format", "logging.format", "log format: text|json", "string"},
	{"metrics-addr", "metrics.addr", "serve Prometheus metrics on this address", "string"},
}

func addSimulationFlags(cmd *cobra.Command) {
	defaults := config.Default()
	fs := cmd.Flags()
	fs.String("config", "", "YAML configuration file")
	for _, f := range simulationFlags {
		switch f.kind {
		case "int64":
			fs.Int64(f.name, defaults.Population.Seed, f.usage)
		case "int":
			fs.Int(f.name, 0, f.usage)
		case "float":
			fs.Float64(f.name, 0, f.usage)
		case "bool":
			fs.Bool(f.name, false, f.usage)
		default:
			fs.String(f.name, "", f.usage)
		}
	}
}

// loadSimulation layers the configuration: defaults, then the config file,
// then EMERGENTS_* environment variables, then flags that were set.
func loadSimulation(cmd *cobra.Command) (config.Simulation, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	defaults, err := yaml.Marshal(config.Default())
	if err != nil {
		return config.Simulation{}, err
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return config.Simulation{}, err
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return config.Simulation{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, f := range simulationFlags {
		flag := cmd.Flags().Lookup(f.name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(f.key, flag); err != nil {
			return config.Simulation{}, err
		}
	}

	var cfg config.Simulation
	if err := v.Unmarshal(&cfg); err != nil {
		return config.Simulation{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Simulation{}, err
	}
	return cfg, nil
}

// newClient opens a client on the storage and artifacts locations of cfg.
func newClient(cfg config.Simulation, logOut io.Writer) (*emergents.Client, error) {
	logger, err := logging.New(cfg.Logging, logOut)
	if err != nil {
		return nil, err
	}
	return emergents.New(emergents.Options{
		StoreKind:    cfg.Storage.Backend,
		DBPath:       cfg.Storage.Path,
		ArtifactsDir: cfg.Evolution.ArtifactsDir,
		Logger:       logger,
	})
}

// addLookupFlags registers the flags of commands that only read recorded
// runs.
func addLookupFlags(cmd *cobra.Command) {
	defaults := config.Default()
	cmd.Flags().String("artifacts-dir", defaults.Evolution.ArtifactsDir, "artifacts directory")
	cmd.Flags().String("store", defaults.Storage.Backend, "store backend: memory|sqlite|badger")
	cmd.Flags().String("db-path", "", "database path for sqlite or badger")
}

func lookupClient(cmd *cobra.Command) (*emergents.Client, error) {
	cfg := config.Default()
	cfg.Evolution.ArtifactsDir, _ = cmd.Flags().GetString("artifacts-dir")
	cfg.Storage.Backend, _ = cmd.Flags().GetString("store")
	cfg.Storage.Path, _ = cmd.Flags().GetString("db-path")
	cfg.Logging.Quiet = true
	return newClient(cfg, cmd.ErrOrStderr())
}

func addRunSelectFlags(cmd *cobra.Command) {
	cmd.Flags().String("run-id", "", "run id")
	cmd.Flags().Bool("latest", false, "use the most recent run")
}

func runSelection(cmd *cobra.Command) (string, bool) {
	runID, _ := cmd.Flags().GetString("run-id")
	latest, _ := cmd.Flags().GetBool("latest")
	return runID, latest
}
