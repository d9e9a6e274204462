package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mymanga",
	Short: "Browse, search and read manga from MangaDex.",
	Long: `Browse, search and read manga from MangaDex.

Provide a configuration file using one of the following methods:
1. Use the --config <path> or -c <path> flag.
2. Place a config.yaml file in the default user configuration directory (e.g., ~/.config/mymanga/).
3. Place a config.yaml file a folder inside your home directory (e.g., ~/.mymanga/).
4. Place a config.yaml file in the directory of the binary.

Every setting can be overridden with a MYMANGA__ prefixed environment variable.`,
}

func init() {
	initRootFlags()
	initServeFlags()
	initDownloadFlags()

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(downloadCmd)
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
