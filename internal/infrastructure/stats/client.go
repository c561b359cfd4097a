// Package stats is the HTTP client for the hit-statistics service that
// backs event view counts.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const timeLayout = "2006-01-02 15:04:05"

type Client struct {
	base string
	app  string
	http *http.Client
}

func New(baseURL, app string) *Client {
	return &Client{
		base: baseURL,
		app:  app,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

type hitBody struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

type statsRow struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// RecordHit registers one view of an event detail page.
func (c *Client) RecordHit(ctx context.Context, eventID uuid.UUID, ip string, at time.Time) error {
	body, err := json.Marshal(hitBody{
		App:       c.app,
		URI:       eventURI(eventID),
		IP:        ip,
		Timestamp: at.UTC().Format(timeLayout),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/hit", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("stats service returned %d", resp.StatusCode)
	}
	return nil
}

// HitCount returns the number of unique-IP views of an event since the
// given instant.
func (c *Client) HitCount(ctx context.Context, eventID uuid.UUID, since time.Time) (int64, error) {
	q := url.Values{}
	q.Set("start", since.UTC().Format(timeLayout))
	q.Set("end", time.Now().UTC().Format(timeLayout))
	q.Set("uris", eventURI(eventID))
	q.Set("unique", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/stats?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("stats service returned %d", resp.StatusCode)
	}

	var out []statsRow
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Hits, nil
}

func eventURI(eventID uuid.UUID) string {
	return "/api/v1/events/" + eventID.String()
}
