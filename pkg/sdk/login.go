package sdk

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/client/rp/cli"
	"github.com/zitadel/oidc/v3/pkg/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// LoginWithDeviceCode initiates the OIDC Device Authorization Flow
// (RFC 8628) against the configured identity provider. It guides the
// operator to authorize in a browser, polls for tokens, and returns
// credentials ready for a CredentialStore.
//
// The provider configuration is discovered from the issuer's
// /.well-known/openid-configuration document.
func LoginWithDeviceCode(ctx context.Context, issuer, clientID string) (*Credentials, error) {
	scopes := []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail, oidc.ScopeOfflineAccess}

	relyingParty, err := rp.NewRelyingPartyOIDC(
		ctx,
		issuer,
		clientID,
		"", // clientSecret, empty for public client device flow
		"", // redirectURI, not used for device flow
		scopes,
		rp.WithHTTPClient(oidcHTTPClient()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider at %s: %w", issuer, err)
	}

	authResponse, err := rp.DeviceAuthorization(ctx, scopes, relyingParty, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start device authorization flow: %w", err)
	}

	printDeviceCodeInstructions(authResponse)

	// Best effort; the printed URL covers the case where no browser opens.
	if authResponse.VerificationURIComplete != "" {
		cli.OpenBrowser(authResponse.VerificationURIComplete)
	}

	interval := time.Duration(authResponse.Interval) * time.Second
	if interval == 0 {
		interval = 5 * time.Second
	}

	token, err := rp.DeviceAccessToken(ctx, authResponse.DeviceCode, interval, relyingParty)
	if err != nil {
		return nil, fmt.Errorf("device authorization failed: %w", err)
	}

	creds := &Credentials{
		Token:     token.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}

	if token.IDToken != "" {
		claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, token.IDToken, relyingParty.IDTokenVerifier())
		if err != nil {
			log.Printf("WARNING: failed to verify ID token: %v", err)
		} else {
			creds.Principal = Principal{
				ID:          claims.Subject,
				Email:       claims.Email,
				DisplayName: claims.Name,
			}
		}
	}

	return creds, nil
}

// LoginWithClientCredentials authenticates a machine client using the
// OAuth2 client credentials flow. Discovery supplies the token
// endpoint; the credentials are exchanged for an access token.
func LoginWithClientCredentials(ctx context.Context, issuer, clientID, clientSecret string) (*Credentials, error) {
	scopes := []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail}
	discoverer, err := rp.NewRelyingPartyOIDC(
		ctx,
		issuer,
		clientID,
		clientSecret,
		"", // redirectURI, not used for client credentials
		scopes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider at %s: %w", issuer, err)
	}

	ccConfig := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     discoverer.OAuthConfig().Endpoint.TokenURL,
		Scopes:       scopes,
	}

	token, err := ccConfig.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange client credentials for token: %w", err)
	}

	return &Credentials{
		Token:     token.AccessToken,
		ExpiresAt: token.Expiry,
		Principal: Principal{ID: "client:" + clientID},
	}, nil
}

// RefreshLogin exchanges a refresh token for fresh credentials.
func RefreshLogin(ctx context.Context, issuer, clientID, refreshToken string) (*Credentials, error) {
	scopes := []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail, oidc.ScopeOfflineAccess}
	relyingParty, err := rp.NewRelyingPartyOIDC(
		ctx,
		issuer,
		clientID,
		"",
		"",
		scopes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	tokenSource := relyingParty.OAuthConfig().TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
	})

	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	return &Credentials{
		Token:     newToken.AccessToken,
		ExpiresAt: newToken.Expiry,
	}, nil
}

// EnvClientCredentials reads machine credentials from the environment.
// Returns false when either variable is unset.
func EnvClientCredentials() (clientID, clientSecret string, ok bool) {
	clientID = os.Getenv("CONSOLE_CLIENT_ID")
	clientSecret = os.Getenv("CONSOLE_CLIENT_SECRET")
	return clientID, clientSecret, clientID != "" && clientSecret != ""
}

func oidcHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

func printDeviceCodeInstructions(authResponse *oidc.DeviceAuthorizationResponse) {
	fmt.Println("============================================================")
	fmt.Printf("Your user code is: %s\n", authResponse.UserCode)
	fmt.Println("")
	fmt.Println("Please visit the following URL in your browser to authorize this device:")
	fmt.Printf("  %s\n", authResponse.VerificationURI)
	fmt.Println("")
	if authResponse.VerificationURIComplete != "" {
		fmt.Println("Or use this direct link (includes code):")
		fmt.Printf("  %s\n", authResponse.VerificationURIComplete)
	}
	fmt.Println("============================================================")
	fmt.Println("Waiting for authorization...")
	fmt.Println("")
}
