package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const userInfoURL = "https://graph.microsoft.com/oidc/userinfo"

// UserInfo is the identity returned by the SSO provider after login.
type UserInfo struct {
	OID   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OAuthProvider drives the authorization-code flow against the
// institutional identity provider.
type OAuthProvider struct {
	config *oauth2.Config
}

// NewOAuthProvider configures the flow for the given tenant.
func NewOAuthProvider(clientID, clientSecret, tenantID, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     microsoft.AzureADEndpoint(tenantID),
			Scopes:       []string{"openid", "profile", "email"},
		},
	}
}

// AuthCodeURL returns the provider login URL carrying the state token.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the authorization code for an access token.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// FetchUserInfo resolves the logged-in identity from the userinfo endpoint.
func (p *OAuthProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("identity provider returned no email")
	}
	return &info, nil
}
