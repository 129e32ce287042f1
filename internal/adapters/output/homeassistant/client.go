package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hue-bridge-emulator/internal/domain/model"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const cacheTTL = 2 * time.Second

// Client is an EntityStore backed by the Home Assistant REST API.
type Client struct {
	url        string
	token      string
	httpClient *http.Client

	mu          sync.RWMutex
	cacheStates []model.Entity
	cacheTime   time.Time
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		url:        strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) List(ctx context.Context) ([]model.Entity, error) {
	c.mu.RLock()
	if c.cacheStates != nil && time.Since(c.cacheTime) < cacheTTL {
		res := c.cacheStates
		c.mu.RUnlock()
		return res, nil
	}
	c.mu.RUnlock()

	var states []model.Entity
	if err := c.get(ctx, "/api/states", &states); err != nil {
		return nil, err
	}

	// Strip large attributes to save RAM
	for _, s := range states {
		stripAttributes(s)
	}

	c.mu.Lock()
	c.cacheStates = states
	c.cacheTime = time.Now()
	c.mu.Unlock()

	return states, nil
}

func (c *Client) Get(ctx context.Context, entityID string) (model.Entity, error) {
	var state model.Entity
	if err := c.get(ctx, "/api/states/"+url.PathEscape(entityID), &state); err != nil {
		return model.Entity{}, err
	}
	stripAttributes(state)
	return state, nil
}

// Dispatch posts a service call. Home Assistant answers once the call has
// been handled, so a 2xx reply means the command was accepted.
func (c *Client) Dispatch(ctx context.Context, cmd model.Command) error {
	payload := make(map[string]interface{}, len(cmd.Data)+1)
	for k, v := range cmd.Data {
		payload[k] = v
	}
	payload["entity_id"] = cmd.EntityID
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/api/services/%s/%s", c.url, cmd.Domain, cmd.Service)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.invalidate()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HA API error calling %s: %d", cmd, resp.StatusCode)
	}
	log.Debug().Str("service", cmd.String()).Str("entity", cmd.EntityID).Msg("Service call accepted")
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, model.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("HA API error: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.cacheStates = nil
	c.mu.Unlock()
}

func stripAttributes(e model.Entity) {
	for _, attr := range []string{"entity_picture", "entity_picture_local", "source_list", "sound_mode_list"} {
		delete(e.Attributes, attr)
	}
}
