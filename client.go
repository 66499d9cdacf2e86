package notion

import (
	"context"

	"github.com/notioncodes/notion/types"
)

// Client is the top-level entry point for the Notion API. It owns the
// configured HTTP transport and hands out per-resource namespaces that share
// that transport, its rate limiter, and its metrics.
type Client struct {
	config *Config
	http   *HTTPClient

	pages     *PageNamespace
	blocks    *BlockNamespace
	databases *DatabaseNamespace
	users     *UserNamespace
	search    *SearchNamespace
}

// New creates a client from the given configuration. The configuration is
// validated and defaulted first, so a partially filled Config is fine as long
// as it carries credentials.
func New(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpClient, err := NewHTTPClient(config)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:    config,
		http:      httpClient,
		pages:     &PageNamespace{http: httpClient},
		blocks:    &BlockNamespace{http: httpClient},
		databases: &DatabaseNamespace{http: httpClient},
		users:     &UserNamespace{http: httpClient},
		search:    &SearchNamespace{http: httpClient},
	}, nil
}

// NewFromToken creates a client authenticated with an integration token and
// default settings everywhere else.
func NewFromToken(token string) (*Client, error) {
	config := DefaultConfig()
	config.Token = token
	return New(config)
}

// NewFromEnv creates a client configured entirely from NOTION_* environment
// variables.
func NewFromEnv() (*Client, error) {
	config, err := FromEnv()
	if err != nil {
		return nil, err
	}
	return New(config)
}

// Pages returns the namespace for page operations.
func (c *Client) Pages() *PageNamespace {
	return c.pages
}

// Blocks returns the namespace for block operations.
func (c *Client) Blocks() *BlockNamespace {
	return c.blocks
}

// Databases returns the namespace for database operations.
func (c *Client) Databases() *DatabaseNamespace {
	return c.databases
}

// Users returns the namespace for user operations.
func (c *Client) Users() *UserNamespace {
	return c.users
}

// Search returns the namespace for workspace search.
func (c *Client) Search() *SearchNamespace {
	return c.search
}

// HTTP exposes the underlying transport for requests the namespaces do not
// cover.
func (c *Client) HTTP() *HTTPClient {
	return c.http
}

// TestConnection reports whether the client can reach the API with its
// current credentials.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.users.Me(ctx)
	return err == nil
}

// WorkspaceInfo describes the workspace the client is connected to, as seen
// through the integration's bot user.
type WorkspaceInfo struct {
	BotUser          *types.User `json:"bot_user"`
	WorkspaceName    string      `json:"workspace_name"`
	APIVersion       string      `json:"api_version"`
	ConnectionStatus string      `json:"connection_status"`
}

// GetWorkspaceInfo fetches the bot user and summarizes the connection.
func (c *Client) GetWorkspaceInfo(ctx context.Context) (*WorkspaceInfo, error) {
	me, err := c.users.Me(ctx)
	if err != nil {
		return nil, err
	}

	return &WorkspaceInfo{
		BotUser:          me,
		WorkspaceName:    me.WorkspaceName(),
		APIVersion:       c.config.Version,
		ConnectionStatus: "connected",
	}, nil
}

// Metrics returns a snapshot of request metrics for this client.
func (c *Client) Metrics() *Metrics {
	return c.http.GetMetrics()
}

// ResetMetrics clears accumulated request metrics.
func (c *Client) ResetMetrics() {
	c.http.ResetMetrics()
}

// Config returns the client's configuration.
func (c *Client) Config() *Config {
	return c.config
}

// Close releases idle connections held by the transport.
func (c *Client) Close() error {
	return c.http.Close()
}
