package cmd

import (
	"fmt"
	"github.com/spf13/cobra"
	"os"
)

var configFile string

// rootCmd runs the API when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "milk2meat",
	Short: "Bible study notes API",
	Long: `milk2meat stores Markdown notes about the books of the Bible.
Without a subcommand the API server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.json", "path to the json configuration")

	rootCmd.AddCommand(
		serveCmd,
		populateBooksCmd,
		demoNotesCmd,
		hashPasswordCmd,
		tokenCmd,
	)
}
