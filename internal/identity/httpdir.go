package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ataa/internal/infra"
)

// ErrMissingBaseURL indicates the client was configured without an endpoint.
var ErrMissingBaseURL = errors.New("directory: base url is required")

// ClientOptions configures the HTTP directory client.
type ClientOptions struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to the identity provider's REST directory API. It implements
// Directory.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     infra.Logger
}

type accountPayload struct {
	Ref         string `json:"ref"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type listResponse struct {
	Accounts []accountPayload `json:"accounts"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// NewClient constructs a directory client with sane defaults.
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ListAccounts returns one page of directory accounts.
func (c *Client) ListAccounts(ctx context.Context, page, perPage int) ([]Account, error) {
	if perPage <= 0 || perPage > maxPageSize {
		perPage = maxPageSize
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("perPage", strconv.Itoa(perPage))

	raw, err := c.do(ctx, http.MethodGet, "/accounts?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var decoded listResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("directory: decode listing: %w", err)
	}
	accounts := make([]Account, 0, len(decoded.Accounts))
	for _, item := range decoded.Accounts {
		accounts = append(accounts, Account{Ref: item.Ref, Email: item.Email, DisplayName: item.DisplayName})
	}
	return accounts, nil
}

// CreateAccount registers a new account and returns it with its assigned ref.
func (c *Client) CreateAccount(ctx context.Context, account Account) (Account, error) {
	body, err := json.Marshal(accountPayload{Email: account.Email, DisplayName: account.DisplayName})
	if err != nil {
		return Account{}, fmt.Errorf("directory: encode account: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, "/accounts", body)
	if err != nil {
		return Account{}, err
	}
	var decoded accountPayload
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Account{}, fmt.Errorf("directory: decode account: %w", err)
	}
	if decoded.Ref == "" {
		return Account{}, errors.New("directory: create returned empty ref")
	}
	return Account{Ref: decoded.Ref, Email: decoded.Email, DisplayName: decoded.DisplayName}, nil
}

// DeleteAccount removes an account; used to roll back partial provisioning.
func (c *Client) DeleteAccount(ctx context.Context, ref string) error {
	_, err := c.do(ctx, http.MethodDelete, "/accounts/"+url.PathEscape(ref), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("directory: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("directory: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(raw))
		var detail errorPayload
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
			message = detail.Message
		}
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("directory request failed")
		return nil, &ProviderError{Status: resp.StatusCode, Message: message}
	}
	return raw, nil
}
