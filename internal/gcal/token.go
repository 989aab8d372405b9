package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agendaflow/backend/internal/store"
)

const DefaultTokenURL = "https://oauth2.googleapis.com/token"

// TokenManager hands out a valid access token for a practitioner, refreshing
// and persisting it first when the stored one has expired. Callers never see
// a refreshed token that was not persisted.
type TokenManager struct {
	tokens       store.CalendarTokenRepository
	tokenURL     string
	clientID     string
	clientSecret string
	http         *http.Client
	now          func() time.Time
}

func NewTokenManager(tokens store.CalendarTokenRepository, tokenURL, clientID, clientSecret string, timeout time.Duration) *TokenManager {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TokenManager{
		tokens:       tokens,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

func (m *TokenManager) ValidAccessToken(ctx context.Context, userID string) (string, error) {
	token, err := m.tokens.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotConnected
		}
		return "", fmt.Errorf("loading calendar token: %w", err)
	}

	now := m.now().UTC()
	if !token.Expired(now) {
		return token.AccessToken, nil
	}

	accessToken, expiresIn, err := m.refresh(ctx, token.RefreshToken)
	if err != nil {
		return "", err
	}

	expiresAt := now.Add(time.Duration(expiresIn) * time.Second)
	if err := m.tokens.UpdateAccess(ctx, userID, accessToken, expiresAt); err != nil {
		return "", fmt.Errorf("persisting refreshed token: %w", err)
	}
	return accessToken, nil
}

func (m *TokenManager) refresh(ctx context.Context, refreshToken string) (string, int, error) {
	form := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.http.Do(req)
	if err != nil {
		return "", 0, &RefreshError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken      string `json:"access_token"`
		ExpiresIn        int    `json:"expires_in"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, &RefreshError{Reason: fmt.Sprintf("status %d: unreadable response", resp.StatusCode)}
	}

	if resp.StatusCode >= 300 || body.AccessToken == "" {
		reason := body.ErrorDescription
		if reason == "" {
			reason = body.Error
		}
		if reason == "" {
			reason = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", 0, &RefreshError{Reason: reason}
	}

	if body.ExpiresIn <= 0 {
		body.ExpiresIn = 3600
	}
	return body.AccessToken, body.ExpiresIn, nil
}
