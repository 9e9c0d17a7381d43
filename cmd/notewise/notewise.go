package main

import (
	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/node"
	"github.com/NethermindEth/notewise/utils"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version string

const (
	configF              = "config"
	logLevelF            = "log-level"
	colourF              = "colour"
	dbPathF              = "db-path"
	inclusionDelayF      = "inclusion-delay"
	metricsF             = "metrics"
	metricsHostF         = "metrics-host"
	metricsPortF         = "metrics-port"
	pollIntervalF        = "poll-interval"
	pollMaxAttemptsF     = "poll-max-attempts"
	provingRetriesF      = "proving-retries"
	provingBackoffF      = "proving-backoff"
	maxConcurrentProofsF = "max-concurrent-proofs"
	seedAttemptsF        = "seed-attempts"

	defaultConfig      = ""
	defaultColour      = true
	defaultDBPath      = ""
	defaultMetrics     = false
	defaultMetricsHost = "localhost"
	defaultMetricsPort = uint16(9090)

	configFlagUsage     = "The YAML configuration file."
	logLevelFlagUsage   = "Options: debug, info, warn, error."
	colourUsage         = "Use `--colour=false` command to disable colourized outputs (ANSI Escape Codes)."
	dbPathUsage         = "Location of the client database files. Empty keeps all state in memory."
	inclusionDelayUsage = "Minimum time a submitted transaction waits in the devnet mempool " +
		"before it can be included in a block."
	metricsUsage             = "Enables the Prometheus metrics endpoint."
	metricsHostUsage         = "The interface on which the Prometheus endpoint will listen for requests."
	metricsPortUsage         = "The port on which the Prometheus endpoint will listen for requests."
	pollIntervalUsage        = "Delay between two state synchronisations while waiting for a transaction or notes."
	pollMaxAttemptsUsage     = "Number of synchronisations after which waiting gives up."
	provingRetriesUsage      = "Number of times a transiently failing proof is retried."
	provingBackoffUsage      = "Initial delay between proving retries, doubled after every attempt."
	maxConcurrentProofsUsage = "Maximum number of transactions proven at the same time."
	seedAttemptsUsage        = "Maximum number of candidate seeds tried when deriving a new account id."
)

type NewNodeFn func(cfg *node.Config) (*node.Node, error)

func NewCmd(newNodeFn NewNodeFn) *cobra.Command {
	cfg := new(node.Config)
	var cfgFile string

	notewiseCmd := &cobra.Command{
		Use:          "notewise [flags]",
		Short:        "Note-based transaction orchestration client running against a local devnet.",
		Version:      Version,
		SilenceUsage: true,
	}

	defaults := client.DefaultConfig()
	defaultLogLevel := utils.INFO

	flags := notewiseCmd.PersistentFlags()
	flags.StringVar(&cfgFile, configF, defaultConfig, configFlagUsage)
	flags.Var(&defaultLogLevel, logLevelF, logLevelFlagUsage)
	flags.Bool(colourF, defaultColour, colourUsage)
	flags.String(dbPathF, defaultDBPath, dbPathUsage)
	flags.Duration(inclusionDelayF, 0, inclusionDelayUsage)
	flags.Bool(metricsF, defaultMetrics, metricsUsage)
	flags.String(metricsHostF, defaultMetricsHost, metricsHostUsage)
	flags.Uint16(metricsPortF, defaultMetricsPort, metricsPortUsage)
	flags.Duration(pollIntervalF, defaults.PollInterval, pollIntervalUsage)
	flags.Int(pollMaxAttemptsF, defaults.MaxPollAttempts, pollMaxAttemptsUsage)
	flags.Int(provingRetriesF, defaults.ProvingRetries, provingRetriesUsage)
	flags.Duration(provingBackoffF, defaults.ProvingBackoff, provingBackoffUsage)
	flags.Uint(maxConcurrentProofsF, defaults.MaxConcurrentProofs, maxConcurrentProofsUsage)
	flags.Uint64(seedAttemptsF, defaults.SeedAttempts, seedAttemptsUsage)

	notewiseCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		v := viper.New()
		if cfgFile != "" {
			v.SetConfigType("yaml")
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}

		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		return v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		)))
	}

	withNode := func(run func(cmd *cobra.Command, args []string, n *node.Node) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			n, err := newNodeFn(cfg)
			if err != nil {
				return err
			}
			return run(cmd, args, n)
		}
	}

	notewiseCmd.AddCommand(
		CounterCmd(withNode),
		MintConsumeCmd(withNode),
		TransferCmd(withNode),
		AccountsCmd(withNode),
		CompileCmd(),
		RenderCmd(),
	)
	return notewiseCmd
}
