// Package billing is the client for the remote billing/inventory API the
// worker samples usage from.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrDataSource indicates an authentication, transport or pagination
// failure upstream. The run aborts before any store mutation: a partially
// aggregated value is never trusted.
var ErrDataSource = errors.New("billing: data source failure")

// authHeader carries the session token on authenticated requests.
const authHeader = "x-redlock-auth"

const (
	connectTimeout = 30 * time.Second
	requestTimeout = 300 * time.Second
)

// Client calls the billing API over HTTP.
type Client struct {
	baseURL    string
	accessKey  string
	secretKey  string
	pageSize   int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the API at baseURL. pageSize controls how
// many accounts each listing request fetches.
func NewClient(baseURL, accessKey, secretKey string, pageSize int, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		accessKey: accessKey,
		secretKey: secretKey,
		pageSize:  pageSize,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		logger: logger,
	}
}

// Account is one billable unit whose usage count contributes to the
// current value.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type usageResponse struct {
	ResourceCount int64 `json:"resourceCount"`
}

// Login exchanges the access key pair for a session token.
func (c *Client) Login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{
		Username: c.accessKey,
		Password: c.secretKey,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding login request: %v", ErrDataSource, err)
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/login", "", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: login response contained no token", ErrDataSource)
	}

	c.logger.Info("authenticated against billing API")
	return resp.Token, nil
}

// Usage returns the resource count for one account.
func (c *Client) Usage(ctx context.Context, token, accountID string) (int64, error) {
	url := fmt.Sprintf("%s/cloud/%s/usage", c.baseURL, accountID)

	var resp usageResponse
	if err := c.do(ctx, http.MethodGet, url, token, nil, &resp); err != nil {
		return 0, err
	}
	if resp.ResourceCount < 0 {
		return 0, fmt.Errorf("%w: account %s reported negative resource count %d",
			ErrDataSource, accountID, resp.ResourceCount)
	}
	return resp.ResourceCount, nil
}

// listAccounts fetches one page of accounts.
func (c *Client) listAccounts(ctx context.Context, token string, offset int) ([]Account, error) {
	url := fmt.Sprintf("%s/cloud?limit=%d&offset=%d", c.baseURL, c.pageSize, offset)

	var accounts []Account
	if err := c.do(ctx, http.MethodGet, url, token, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) do(ctx context.Context, method, url, token string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%w: creating request for %s: %v", ErrDataSource, url, err)
	}
	req.Header.Set("Accept", "application/json; charset=UTF-8")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(authHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDataSource, method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s returned status %d", ErrDataSource, method, url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response from %s: %v", ErrDataSource, url, err)
	}
	return nil
}
