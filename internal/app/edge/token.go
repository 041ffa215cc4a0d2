package edge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/luma-mobile/companion-service/pkg/logger"
)

// TokenClient exchanges client credentials for an access token against an
// IMS-style token endpoint.
type TokenClient struct {
	client       *http.Client
	endpoint     string
	clientID     string
	clientSecret string
	scopes       string
	log          *logger.Logger
}

// NewTokenClient creates a token client. The endpoint must accept a
// form-encoded client_credentials grant.
func NewTokenClient(client *http.Client, endpoint, clientID, clientSecret, scopes string, log *logger.Logger) (*TokenClient, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("token endpoint is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("edge-token")
	}
	return &TokenClient{
		client:       client,
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		scopes:       scopes,
		log:          log,
	}, nil
}

// AccessToken performs the exchange. Failures yield an empty token and are
// logged, never fatal.
func (c *TokenClient) AccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", c.scopes)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.WithField("status", resp.StatusCode).Warn("token exchange failed")
		return "", fmt.Errorf("token exchange: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("token exchange: access_token missing in response")
	}
	return token, nil
}
