package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTP is the client-side Store talking to the backend's
// /profile/:uid endpoints.
type HTTP struct {
	base   string
	client *http.Client
}

func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *HTTP) endpoint(uid string) string {
	return h.base + "/profile/" + url.PathEscape(uid)
}

func (h *HTTP) Get(ctx context.Context, uid string) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", h.endpoint(uid), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile get %s: %s", uid, resp.Status)
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (h *HTTP) Put(ctx context.Context, uid string, rec *Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "PUT", h.endpoint(uid), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("profile put %s: %s", uid, resp.Status)
	}
	return nil
}
