// Package client is a small HTTP client for the triage API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Case is the subset of a case the CLI shows.
type Case struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	ClientID     int64     `json:"client_id"`
	Severity     string    `json:"severity"`
	IncidentType string    `json:"incident_type"`
	Status       string    `json:"status"`
	Verdict      string    `json:"verdict"`
	Title        string    `json:"title"`
	AnalystName  string    `json:"analyst_name"`
}

type IncidentCount struct {
	IncidentType string `json:"incident_type"`
	Count        int    `json:"count"`
}

type HourlyCases struct {
	Hour  int `json:"hour"`
	Cases int `json:"cases"`
}

// DashboardStats mirrors the dashboard document.
type DashboardStats struct {
	TotalAlertsToday   int                `json:"total_alerts_today"`
	SeverityPercent    map[string]float64 `json:"severity_percent"`
	LastScanSecondsAgo int64              `json:"last_scan_seconds_ago"`
	IncidentsToday     []IncidentCount    `json:"incidents_today"`
	TimelineHourly     []HourlyCases      `json:"timeline_hourly"`
}

type MessagingHealth struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Health is the /healthz document.
type Health struct {
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Messaging MessagingHealth `json:"messaging"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(data, &body)
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Health returns the service health document.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/healthz", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Dashboard returns today's dashboard. clientID 0 covers every client.
func (c *Client) Dashboard(ctx context.Context, clientID int64) (*DashboardStats, error) {
	q := url.Values{}
	if clientID > 0 {
		q.Set("client", strconv.FormatInt(clientID, 10))
	}
	var stats DashboardStats
	if err := c.get(ctx, "/api/dashboard/", q, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CaseQuery filters ListCases. Zero values are omitted.
type CaseQuery struct {
	ClientID     int64
	Severity     string
	Status       string
	IncidentType string
	Today        bool
	Limit        int
}

func (q CaseQuery) values() url.Values {
	v := url.Values{}
	if q.ClientID > 0 {
		v.Set("client", strconv.FormatInt(q.ClientID, 10))
	}
	if q.Severity != "" {
		v.Set("severity", q.Severity)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.IncidentType != "" {
		v.Set("incident_type", q.IncidentType)
	}
	if q.Today {
		v.Set("today", "true")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func (c *Client) ListCases(ctx context.Context, q CaseQuery) ([]Case, error) {
	var cases []Case
	if err := c.get(ctx, "/api/cases/", q.values(), &cases); err != nil {
		return nil, err
	}
	return cases, nil
}
