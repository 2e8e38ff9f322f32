package cmd

import (
	"fmt"
	"github.com/spf13/cobra"
	"milk2meat/internal/config"
	"milk2meat/internal/middlewares"
)

var (
	tokenUserId    uint
	tokenEmail     string
	tokenSuperuser bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed access token",
	Long:  `token signs an access token with the configured key, e.g. for calling the API from scripts.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUserId == 0 {
			return fmt.Errorf("--user-id is required")
		}

		c := config.InitConfig(configFile)
		if len(c.Auth.SigningKey) == 0 {
			return fmt.Errorf("no signing key configured")
		}

		token, expiresAt, err := middlewares.NewTokenIssuer(c).GenerateToken(tokenUserId, tokenEmail, middlewares.RolesFor(tokenSuperuser))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

func init() {
	tokenCmd.Flags().UintVar(&tokenUserId, "user-id", 0, "id of the token's user")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email put into the token")
	tokenCmd.Flags().BoolVar(&tokenSuperuser, "superuser", false, "grant the superuser roles")
}
