package cmd

import (
	"fmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"milk2meat/internal/notes"
	"milk2meat/internal/storage"
)

var (
	demoCount int
	demoForce bool
)

var demoNotesCmd = &cobra.Command{
	Use:   "create-demo-notes",
	Short: "Create demo notes for development",
	Long: `create-demo-notes fills the database with generated notes owned by the first superuser.
Outside of debug logging it only runs with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, logger, env, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if c.Logging.Level != zap.DebugLevel && !demoForce {
			return fmt.Errorf("this command can only run in development mode; use --force to override")
		}

		// demo notes never carry uploads
		seeder := notes.NewDemoSeeder(env, notes.NewNoteService(env, &storage.NullStorage{}))
		created, err := seeder.Run(cmd.Context(), demoCount)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Successfully created %d demo notes\n", created)
		return nil
	},
}

func init() {
	demoNotesCmd.Flags().IntVar(&demoCount, "count", notes.DefaultDemoCount, "number of notes to create")
	demoNotesCmd.Flags().BoolVar(&demoForce, "force", false, "force creation even if not in development")
}
