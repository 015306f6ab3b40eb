package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pallavilagisetti/admin-control-sub001/pkg/sdk"
)

var (
	loginIssuer       string
	loginClientID     string
	loginClientSecret string
	loginStorePath    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the identity provider",
	Long: `Authenticates an operator or machine client against the configured
identity provider and stores the credentials locally.

Two methods are supported:
1. Interactive login (default): initiates an OIDC device authorization
   flow for human operators.
2. Client credentials: uses a client ID and secret for non-interactive
   authentication. Pass --client-id and --client-secret, or set
   CONSOLE_CLIENT_ID and CONSOLE_CLIENT_SECRET.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		issuer := loginIssuer
		if issuer == "" {
			if cfg.IdP == nil || !cfg.IdPConfigured() {
				return fmt.Errorf("no identity provider configured (set IDP_DOMAIN or pass --issuer)")
			}
			issuer = "https://" + cfg.IdP.Domain
		}

		store, err := sdk.NewFileStore(loginStorePath)
		if err != nil {
			return fmt.Errorf("failed to create credential store: %w", err)
		}

		clientID, clientSecret := loginClientID, loginClientSecret
		if clientID == "" && clientSecret == "" {
			if envID, envSecret, ok := sdk.EnvClientCredentials(); ok {
				fmt.Println("Using client credentials from environment variables.")
				clientID, clientSecret = envID, envSecret
			}
		}

		// Client credentials flow (non-interactive)
		if clientID != "" && clientSecret != "" {
			fmt.Println("Authenticating with client credentials...")
			creds, err := sdk.LoginWithClientCredentials(cmd.Context(), issuer, clientID, clientSecret)
			if err != nil {
				return err
			}
			if err := store.Save(creds); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}
			fmt.Println("------------------------------------------------------------")
			fmt.Println("Client credentials login successful!")
			fmt.Printf("Authenticated with client ID: %s\n", clientID)
			return nil
		}

		if clientID == "" {
			return fmt.Errorf("--client-id is required for interactive login")
		}

		// Interactive device flow
		creds, err := sdk.LoginWithDeviceCode(cmd.Context(), issuer, clientID)
		if err != nil {
			return err
		}
		if err := store.Save(creds); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}

		fmt.Println("------------------------------------------------------------")
		fmt.Println("Interactive login successful!")
		if creds.Principal.ID != "" {
			fmt.Printf("Authenticated as: %s (%s)\n", creds.Principal.ID, creds.Principal.Email)
		}
		fmt.Printf("Token expires at: %s\n", creds.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginIssuer, "issuer", "", "OIDC issuer URL (default: https://<IDP_DOMAIN>)")
	loginCmd.Flags().StringVar(&loginClientID, "client-id", "", "OAuth client ID")
	loginCmd.Flags().StringVar(&loginClientSecret, "client-secret", "", "Client secret for non-interactive authentication")
	loginCmd.Flags().StringVar(&loginStorePath, "credentials-file", "", "Path for stored credentials (default: user config directory)")
	rootCmd.AddCommand(loginCmd)
}
