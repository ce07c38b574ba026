package main

import (
	"github.com/spf13/cobra"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/config"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "gatewaybot",
		Short:         "Discord bot dispatching gateway events through eventmgr",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("config", "", "YAML configuration file")

	root.AddCommand(newRunCommand())
	root.AddCommand(newConfigCommand())
	root.AddCommand(newIncidentsCommand())
	return root
}

// addSettingsFlags registers the flags that override configuration keys.
func addSettingsFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("token", "", "Discord bot token")
	flags.Duration("timeout", 0, "default per-listener timeout (0 = unlimited)")
	flags.Int("workers", 0, "maximum concurrent dispatches (0 = unbounded)")
	flags.String("journal", "", "SQLite incident journal (empty = in memory)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "json", "log format: json or text")
	flags.String("log-file", "", "log file, rotated (empty = stderr)")
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Settings{}, err
	}
	return config.Load(config.LoadOptions{
		Path:  path,
		Flags: cmd.Flags(),
	})
}
