package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Event is the wire shape sent to the calendar provider.
type Event struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	Start       EventDateTime `json:"start"`
	End         EventDateTime `json:"end"`
}

type EventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Client talks to the Google Calendar events API for the primary calendar,
// authenticated per call with a bearer token.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) InsertEvent(ctx context.Context, accessToken string, ev Event) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, accessToken, http.MethodPost, "/calendars/primary/events", &ev, &out)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("insert response missing event id")
	}
	return out.ID, nil
}

func (c *Client) UpdateEvent(ctx context.Context, accessToken, eventID string, ev Event) error {
	return c.do(ctx, accessToken, http.MethodPut, "/calendars/primary/events/"+eventID, &ev, nil)
}

func (c *Client) DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	return c.do(ctx, accessToken, http.MethodDelete, "/calendars/primary/events/"+eventID, nil, nil)
}

func (c *Client) do(ctx context.Context, accessToken, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrEventNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("calendar api %s %s: status %d: %s", method, path, resp.StatusCode, readError(resp.Body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding calendar response: %w", err)
		}
	}
	return nil
}

func readError(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil || len(raw) == 0 {
		return "no body"
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
