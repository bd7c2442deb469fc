package main

import (
	"fmt"

	"dealflow/pkg/auth"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the admin API",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}

		email := viper.GetString("email")
		if email == "" {
			email = cfg.Admin.Email
		}

		ttl := cfg.Admin.TokenTTL
		if d := viper.GetDuration("ttl"); d > 0 {
			ttl = d
		}

		token, err := auth.NewJWTManager(cfg.Admin.JWTSecret, ttl).GenerateToken(email)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (defaults to ADMIN_TOKEN_TTL_HOURS)")
	tokenCmd.Flags().String("email", "", "email claim (defaults to ADMIN_EMAIL)")
	_ = viper.BindPFlag("ttl", tokenCmd.Flags().Lookup("ttl"))
	_ = viper.BindPFlag("email", tokenCmd.Flags().Lookup("email"))

	rootCmd.AddCommand(tokenCmd)
}
