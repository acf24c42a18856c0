package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/indcloud/console/client"
	"github.com/indcloud/console/config"
	"github.com/spf13/cobra"
)

// roles that may open the log channels
const (
	roleAdmin     = "ROLE_ADMIN"
	roleDeveloper = "ROLE_DEVELOPER"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password, provider, redirect string
	var save bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token in the profile",
		Long: `Log in with email and password and store the token in the profile.

With --oauth the provider login URL is printed instead; open it in a browser
and store the token it returns with --token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}

			if provider != "" {
				c.printf("%v\n", cl.OAuthURL(provider, redirect))
				return nil
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				c.printf("email: ")
				if email, err = in.ReadString('\n'); err != nil {
					return fmt.Errorf("reading email: %w", err)
				}
			}
			if password == "" {
				password = c.getenv("INDCLOUD_PASSWORD")
			}
			if password == "" {
				c.printf("password: ")
				if password, err = in.ReadString('\n'); err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
			}

			ctx, cancel := c.context(cmd)
			defer cancel()
			auth, err := cl.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
			if err != nil {
				return err
			}

			info, err := client.ParseToken(auth.Token)
			if err != nil {
				return err
			}
			c.printf("logged in as %v", info.Email)
			if len(info.Roles) > 0 {
				c.printf(" (%v)", strings.Join(info.Roles, ", "))
			}
			if !info.ExpiresAt.IsZero() {
				c.printf(", token expires %v", info.ExpiresAt.Local().Format(time.DateTime))
			}
			c.printf("\n")
			if !info.HasRole(roleDeveloper) && !info.HasRole(roleAdmin) {
				c.printf("warning: the log channels need the developer role\n")
			}

			if !save {
				c.printf("%v\n", auth.Token)
				return nil
			}

			// the file profile is saved without environment overrides
			profile, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			profile.URL = c.cfg.URL
			profile.Token = auth.Token
			if err := config.Save(c.configPath, profile); err != nil {
				return err
			}
			c.printf("token saved to %v\n", c.configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or INDCLOUD_PASSWORD)")
	cmd.Flags().StringVar(&provider, "oauth", "", "print the login URL of an OAuth provider, e.g. google")
	cmd.Flags().StringVar(&redirect, "redirect", "", "OAuth redirect URI")
	cmd.Flags().BoolVar(&save, "save", true, "store the token in the profile, otherwise print it")
	return cmd
}
