// Package geocode resolves coordinates to street addresses through a Nominatim
// compatible reverse endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultURL = "https://nominatim.openstreetmap.org/reverse"

var ErrNoAddress = errors.New("no address for coordinates")

type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

type address struct {
	Road          string `json:"road"`
	Street        string `json:"street"`
	Pedestrian    string `json:"pedestrian"`
	HouseNumber   string `json:"house_number"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Municipality  string `json:"municipality"`
}

type reverseResponse struct {
	Address *address `json:"address"`
}

// Reverse returns "Road, Number - Suburb - City" with whatever parts are known.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status %d", res.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("reverse geocode: decode: %w", err)
	}
	if body.Address == nil {
		return "", ErrNoAddress
	}
	formatted := format(*body.Address)
	if formatted == "" {
		return "", ErrNoAddress
	}
	return formatted, nil
}

func format(a address) string {
	road := firstNonEmpty(a.Road, a.Street, a.Pedestrian)
	suburb := firstNonEmpty(a.Suburb, a.Neighbourhood)
	city := firstNonEmpty(a.City, a.Town, a.Municipality)

	var parts []string
	for _, p := range []string{road, a.HouseNumber} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	out := strings.Join(parts, ", ")
	if suburb != "" {
		out += " - " + suburb
	}
	if city != "" {
		out += " - " + city
	}
	return strings.TrimPrefix(out, " - ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
