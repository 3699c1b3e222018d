package owm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lox/weatherwidget/internal/httputil"
	"github.com/lox/weatherwidget/internal/metrics"
	"github.com/lox/weatherwidget/internal/models"
)

const DefaultBaseURL = "https://api.openweathermap.org"

var (
	// ErrUnexpectedStatus matches every non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrNotFound matches a 404 from the service (unknown place).
	ErrNotFound = errors.New("location not found")
	// ErrEmptyQuery is returned for a query with neither coordinates nor a place.
	ErrEmptyQuery = errors.New("empty query")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather service: status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	if target == ErrUnexpectedStatus {
		return true
	}
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Query selects a location either by coordinates or by free-text place name.
type Query struct {
	Coords *models.Coordinates
	Place  string
}

// Kind returns "coords" or "place".
func (q Query) Kind() string {
	if q.Coords != nil {
		return "coords"
	}
	return "place"
}

func (q Query) String() string {
	if q.Coords != nil {
		return q.Coords.String()
	}
	return q.Place
}

// FetchResult captures metadata about one API call for auditing.
type FetchResult struct {
	HTTPStatus   int
	ResponseSize int
	Duration     time.Duration
}

// Client fetches current conditions from an OpenWeatherMap-compatible service.
type Client struct {
	apiKey     string
	units      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. units is the service's unit-system flag ("metric" or
// "imperial"); timeout bounds each request.
func NewClient(apiKey, units string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		units:      units,
		baseURL:    DefaultBaseURL,
		httpClient: httputil.NewClient(timeout),
	}
}

// WithBaseURL points the client at a different service root.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type currentResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Fetch performs exactly one request for the query. It does not retry; the caller
// decides what a failure means for the display.
func (c *Client) Fetch(ctx context.Context, q Query) (*models.Reading, *FetchResult, error) {
	u, err := c.buildURL(q)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "WeatherWidget/1.0")

	kind := q.Kind()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	metrics.OWMAPILatency.WithLabelValues(kind).Observe(elapsed.Seconds())
	result := &FetchResult{Duration: elapsed}
	if err != nil {
		metrics.OWMAPICallsTotal.WithLabelValues(kind, "error").Inc()
		return nil, result, fmt.Errorf("fetch current: %w", err)
	}
	defer resp.Body.Close()

	result.HTTPStatus = resp.StatusCode
	metrics.OWMAPICallsTotal.WithLabelValues(kind, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	result.ResponseSize = len(body)
	if err != nil {
		return nil, result, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, result, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	reading, err := decodeReading(body)
	if err != nil {
		return nil, result, err
	}
	return reading, result, nil
}

func (c *Client) buildURL(q Query) (string, error) {
	params := url.Values{
		"appid": {c.apiKey},
		"units": {c.units},
	}
	switch {
	case q.Coords != nil:
		params.Set("lat", strconv.FormatFloat(q.Coords.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(q.Coords.Lon, 'f', -1, 64))
	case strings.TrimSpace(q.Place) != "":
		params.Set("q", strings.TrimSpace(q.Place))
	default:
		return "", ErrEmptyQuery
	}
	return c.baseURL + "/data/2.5/weather?" + params.Encode(), nil
}

func decodeReading(body []byte) (*models.Reading, error) {
	var data currentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if data.Main == nil || data.Main.Temp == nil {
		return nil, errors.New("decode: missing main.temp")
	}
	if len(data.Weather) == 0 {
		return nil, errors.New("decode: no weather conditions returned")
	}

	label := data.Name
	if data.Sys.Country != "" {
		label = data.Name + ", " + data.Sys.Country
	}

	return &models.Reading{
		LocationLabel: label,
		Temperature:   *data.Main.Temp,
		Condition:     data.Weather[0].Main,
		Description:   data.Weather[0].Description,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
