package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	betPath      = "/api/game/bet"
	resultPath   = "/api/game/result"
	matchPath    = "/api/game/match"
	userInfoPath = "/api/user/info"
	xpPath       = "/api/user/xp"
)

// initDataHeader authenticates requests issued from inside the miniapp.
const initDataHeader = "X-Telegram-Init-Data"

// Client talks to the backend API over HTTP. It implements Reporter and
// XPFetcher.
type Client struct {
	baseURL    string
	initData   string
	httpClient *http.Client
}

// NewClient creates an API client for the given base URL. initData may be
// empty when the caller has no web-app session to authenticate with.
func NewClient(baseURL, initData string) *Client {
	return &Client{
		baseURL:  baseURL,
		initData: initData,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// envelope is the backend's standard response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// post sends a JSON payload and, when out is non-nil, decodes the data
// envelope into it.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.initData != "" {
		req.Header.Set(initDataHeader, c.initData)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, path)
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("error decoding data from %s: %w", path, err)
	}
	return nil
}

// ReportBetPlaced records a bet deduction on the backend.
func (c *Client) ReportBetPlaced(ctx context.Context, userID string, betAmount, newBalance float64, useRealFunds bool) error {
	return c.post(ctx, betPath, map[string]any{
		"telegramId":   userID,
		"betAmount":    betAmount,
		"newBalance":   newBalance,
		"useRealFunds": useRealFunds,
	}, nil)
}

// ReportRoundResult records a settled round on the backend.
func (c *Client) ReportRoundResult(ctx context.Context, userID string, report *RoundReport, usedCredits bool) error {
	return c.post(ctx, resultPath, map[string]any{
		"telegramId":  userID,
		"result":      report,
		"usedCredits": usedCredits,
	}, nil)
}

// ReportMatchSync mirrors the full match to the backend.
func (c *Client) ReportMatchSync(ctx context.Context, req *MatchSyncRequest) error {
	return c.post(ctx, matchPath, req, nil)
}

// FetchUserInfo reads the player's profile, including both balances.
func (c *Client) FetchUserInfo(ctx context.Context, userID string) (*UserInfo, error) {
	var info UserInfo
	if err := c.post(ctx, userInfoPath, map[string]any{"telegramId": userID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FetchExperienceInfo reads the player's leveling snapshot.
func (c *Client) FetchExperienceInfo(ctx context.Context, userID string) (*XPInfo, error) {
	var info XPInfo
	if err := c.post(ctx, xpPath, map[string]any{"telegramId": userID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
