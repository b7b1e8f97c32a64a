package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file, YAML or TOML (default is $HOME/.config/foldermirror/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output (debug logging)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// PassFlags holds the flags shared by the commands that run passes
type PassFlags struct {
	Source      string
	Target      string
	Interval    string
	LogFile     string
	LogFormat   string
	LogLevel    string
	Exclude     []string
	Bandwidth   string
	Output      string
	DiffReport  string
	DiffFormat  string
	StopOnError bool
	Watch       bool
}

var passFlags PassFlags

// addPathFlags registers the flags every pass command accepts
func addPathFlags(cmd *cobra.Command) {
	passFlags = PassFlags{}
	cmd.Flags().StringVarP(&passFlags.Source, "source", "s", "", "source directory path (overrides source_path)")
	cmd.Flags().StringVarP(&passFlags.Target, "target", "t", "", "target directory path (overrides target_path)")
	cmd.Flags().StringSliceVar(&passFlags.Exclude, "exclude", nil, "glob patterns to leave alone on both sides")
	cmd.Flags().StringVar(&passFlags.LogFile, "log-file", "", "log file path (default SyncLogs/default.log)")
	cmd.Flags().StringVar(&passFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&passFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// addTransferFlags registers the flags of commands that copy data
func addTransferFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&passFlags.Bandwidth, "bandwidth", "b", "", "bandwidth limit (e.g., \"10MB\", \"1GiB\")")
}

// addOutputFlags registers the flags of single-pass commands
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&passFlags.Output, "output", "o", "", "output format: human, json")
}
