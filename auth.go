package notion

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/oauth2"
)

// Notion OAuth endpoints. The token endpoint authenticates the integration
// with HTTP basic auth (client id and secret), which oauth2 expresses as
// AuthStyleInHeader.
var notionOAuthEndpoint = oauth2.Endpoint{
	AuthURL:   "https://api.notion.com/v1/oauth/authorize",
	TokenURL:  "https://api.notion.com/v1/oauth/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// tokenExpiryBuffer is how close to expiry an access token may get before it
// is refreshed ahead of use.
const tokenExpiryBuffer = 30 * time.Second

// AuthProvider supplies the authentication headers for each outgoing request.
// Headers is called per request so providers can refresh credentials
// transparently.
type AuthProvider interface {
	Headers(ctx context.Context) (map[string]string, error)
}

// IntegrationAuth authenticates with a static internal integration token.
type IntegrationAuth struct {
	token  string
	logger *log.Logger
	warned sync.Once
}

// NewIntegrationAuth creates a bearer token provider. Tokens that do not
// carry a known Notion prefix trigger a warning on first use but still work,
// since Notion has changed the prefix scheme before.
func NewIntegrationAuth(token string) *IntegrationAuth {
	return &IntegrationAuth{token: token}
}

// Headers returns the bearer authorization header.
func (a *IntegrationAuth) Headers(ctx context.Context) (map[string]string, error) {
	if a.token == "" {
		return nil, &AuthenticationError{Message: "integration token is empty"}
	}
	if !strings.HasPrefix(a.token, "secret_") && !strings.HasPrefix(a.token, "ntn_") {
		a.warnOnce()
	}
	return map[string]string{"Authorization": "Bearer " + a.token}, nil
}

func (a *IntegrationAuth) warnOnce() {
	a.warned.Do(func() {
		logger := a.logger
		if logger == nil {
			logger = &log.DefaultLogger
		}
		logger.Warn().Msg("integration token does not look like a Notion token (expected secret_ or ntn_ prefix)")
	})
}

// OAuthConfig holds the public integration credentials issued by Notion.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// OAuthAuth authenticates with OAuth2 access tokens and refreshes them ahead
// of expiry. Safe for concurrent use.
type OAuthAuth struct {
	conf *oauth2.Config

	mu    sync.Mutex
	token *oauth2.Token

	// now is the clock used for expiry checks, replaceable in tests.
	now func() time.Time
}

// NewOAuthAuth creates an OAuth2 provider. The token may be nil when the
// authorization flow has not run yet; ExchangeCode or SetToken installs it.
func NewOAuthAuth(cfg OAuthConfig, token *oauth2.Token) *OAuthAuth {
	return &OAuthAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     notionOAuthEndpoint,
		},
		token: token,
		now:   time.Now,
	}
}

// AuthCodeURL returns the URL to send the workspace owner to. The state
// value is echoed back on the redirect for CSRF checking.
func (a *OAuthAuth) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("owner", "user"))
}

// ExchangeCode trades an authorization code for tokens and installs them.
func (a *OAuthAuth) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthenticationError{Message: "authorization code exchange failed: " + err.Error()}
	}
	a.SetToken(token)
	return token, nil
}

// SetToken installs a previously persisted token.
func (a *OAuthAuth) SetToken(token *oauth2.Token) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

// Token returns a copy of the current token for persistence.
func (a *OAuthAuth) Token() *oauth2.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == nil {
		return nil
	}
	copied := *a.token
	return &copied
}

// Headers returns the bearer header for the current access token, refreshing
// it first when it expires within the buffer window. Tokens without a
// recorded expiry are used as-is.
func (a *OAuthAuth) Headers(ctx context.Context) (map[string]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil || a.token.AccessToken == "" {
		return nil, &AuthenticationError{Message: "no OAuth access token; run the authorization flow first"}
	}

	if a.needsRefreshLocked() {
		if err := a.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}

	return map[string]string{"Authorization": "Bearer " + a.token.AccessToken}, nil
}

func (a *OAuthAuth) needsRefreshLocked() bool {
	if a.token.Expiry.IsZero() {
		return false
	}
	return a.now().Add(tokenExpiryBuffer).After(a.token.Expiry)
}

func (a *OAuthAuth) refreshLocked(ctx context.Context) error {
	if a.token.RefreshToken == "" {
		return &AuthenticationError{Message: "access token expired and no refresh token is available"}
	}

	// Seeding the source with only the refresh token forces a refresh
	// round-trip instead of reusing the stale access token.
	src := a.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: a.token.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		return &AuthenticationError{Message: "token refresh failed: " + err.Error()}
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = a.token.RefreshToken
	}
	a.token = fresh
	return nil
}

// HTTPClient returns an http.Client that injects and refreshes the token on
// every request, for callers that talk to other Notion surfaces directly.
func (a *OAuthAuth) HTTPClient(ctx context.Context) *http.Client {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()
	return oauth2.NewClient(ctx, a.conf.TokenSource(ctx, token))
}

// AuthFromEnv resolves an auth provider from the environment.
// NOTION_API_TOKEN wins and yields an IntegrationAuth. Otherwise
// NOTION_OAUTH_CLIENT_ID and NOTION_OAUTH_CLIENT_SECRET (with optional
// NOTION_OAUTH_REDIRECT_URI, NOTION_OAUTH_ACCESS_TOKEN,
// NOTION_OAUTH_REFRESH_TOKEN, and NOTION_OAUTH_TOKEN_EXPIRY as RFC 3339)
// yield an OAuthAuth.
func AuthFromEnv() (AuthProvider, error) {
	if token := os.Getenv("NOTION_API_TOKEN"); token != "" {
		return NewIntegrationAuth(token), nil
	}

	clientID := os.Getenv("NOTION_OAUTH_CLIENT_ID")
	clientSecret := os.Getenv("NOTION_OAUTH_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, &ConfigError{
			Field:   "Auth",
			Message: "set NOTION_API_TOKEN, or NOTION_OAUTH_CLIENT_ID and NOTION_OAUTH_CLIENT_SECRET",
		}
	}

	cfg := OAuthConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  os.Getenv("NOTION_OAUTH_REDIRECT_URI"),
	}

	var token *oauth2.Token
	if access := os.Getenv("NOTION_OAUTH_ACCESS_TOKEN"); access != "" {
		token = &oauth2.Token{
			AccessToken:  access,
			RefreshToken: os.Getenv("NOTION_OAUTH_REFRESH_TOKEN"),
			TokenType:    "bearer",
		}
		if expiry := os.Getenv("NOTION_OAUTH_TOKEN_EXPIRY"); expiry != "" {
			t, err := time.Parse(time.RFC3339, expiry)
			if err != nil {
				return nil, &ConfigError{
					Field:   "Auth",
					Message: "NOTION_OAUTH_TOKEN_EXPIRY must be RFC 3339: " + err.Error(),
				}
			}
			token.Expiry = t
		}
	}

	return NewOAuthAuth(cfg, token), nil
}
