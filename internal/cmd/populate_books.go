package cmd

import (
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"milk2meat/internal/bible"
)

var populateBooksCmd = &cobra.Command{
	Use:   "populate-books",
	Short: "Seed the 66 books of the Bible",
	Long:  `populate-books inserts the canonical books of the Old and New Testament. It refuses to run when books already exist.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, env, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		seeder := &bible.Seeder{Env: env}
		created, err := seeder.PopulateBooks(cmd.Context())
		if errors.Is(err, bible.ErrBooksExist) {
			fmt.Fprintln(cmd.OutOrStdout(), err.Error())
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Successfully created %d Bible books\n", created)
		return nil
	},
}
