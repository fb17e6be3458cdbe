package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Result is one mileage lookup.
type Result struct {
	Miles      float64 `json:"distanceMiles"`
	TravelTime string  `json:"travelTimeText"`
}

// Service looks up road distance between two free-text locations. A lookup
// failure upstream maps to the pricing engine's zero-price sentinel path.
type Service interface {
	Lookup(ctx context.Context, origin, destination string) (Result, error)
}

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a Service backed by the external directions API.
func New(baseURL, apiKey string, httpClient *http.Client) Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &client{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

func (c *client) Lookup(ctx context.Context, origin, destination string) (Result, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("from", origin)
	query.Set("to", destination)
	query.Set("unit", "m")

	endpoint := fmt.Sprintf("%s/directions/v2/route?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{}, fmt.Errorf("directions endpoint %d: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		Route struct {
			Distance      float64 `json:"distance"`
			FormattedTime string  `json:"formattedTime"`
			RouteError    struct {
				ErrorCode int `json:"errorCode"`
			} `json:"routeError"`
		} `json:"route"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Result{}, err
	}
	if raw.Route.RouteError.ErrorCode > 0 {
		return Result{}, fmt.Errorf("route error %d", raw.Route.RouteError.ErrorCode)
	}
	if raw.Route.Distance <= 0 {
		return Result{}, fmt.Errorf("no route between %q and %q", origin, destination)
	}

	return Result{Miles: raw.Route.Distance, TravelTime: raw.Route.FormattedTime}, nil
}
