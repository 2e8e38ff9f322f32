package cmd

import (
	"fmt"
	"github.com/spf13/cobra"
	"milk2meat/internal/models"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hashed, err := models.Hash(args[0])
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(hashed))
		return nil
	},
}
