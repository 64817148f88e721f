package serverlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// BestServerURL answers with the address of the least loaded server
	BestServerURL = "http://fsd.vatsim.net"

	// StatusURL lists the network data feeds
	StatusURL = "https://status.vatsim.net/status.json"

	// RequestTimeout for HTTP requests
	RequestTimeout = 15 * time.Second

	// MaxRetries for failed downloads
	MaxRetries = 3

	// RetryDelay between retry attempts
	RetryDelay = 2 * time.Second

	userAgent = "fsdclient/1.0"
)

// ErrNoServers is returned when the feed lists no FSD servers
var ErrNoServers = errors.New("no FSD servers listed")

// Server is one entry of the FSD server list
type Server struct {
	Ident           string
	Address         string
	Location        string
	Name            string
	AcceptsNewUsers bool
}

// Fetcher downloads server information from the network's HTTP endpoints
type Fetcher struct {
	bestServerURL string
	statusURL     string
	retryDelay    time.Duration
	maxRetries    int
	httpClient    *http.Client
	log           zerolog.Logger
}

// FetcherConfig holds configuration for the fetcher
type FetcherConfig struct {
	BestServerURL string
	StatusURL     string
	HTTPTimeout   time.Duration
	RetryDelay    time.Duration
	MaxRetries    int
}

// NewFetcher creates a fetcher for the public VATSIM endpoints
func NewFetcher(log zerolog.Logger) *Fetcher {
	return NewFetcherWithConfig(log, FetcherConfig{})
}

// NewFetcherWithConfig creates a fetcher with custom configuration; zero
// fields take their defaults
func NewFetcherWithConfig(log zerolog.Logger, config FetcherConfig) *Fetcher {
	if config.BestServerURL == "" {
		config.BestServerURL = BestServerURL
	}
	if config.StatusURL == "" {
		config.StatusURL = StatusURL
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = RequestTimeout
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = RetryDelay
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = MaxRetries
	}

	return &Fetcher{
		bestServerURL: config.BestServerURL,
		statusURL:     config.StatusURL,
		retryDelay:    config.RetryDelay,
		maxRetries:    config.MaxRetries,
		httpClient:    &http.Client{Timeout: config.HTTPTimeout},
		log:           log,
	}
}

// BestServer returns the address the network recommends connecting to
func (f *Fetcher) BestServer(ctx context.Context) (string, error) {
	body, err := f.get(ctx, f.bestServerURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch best server: %w", err)
	}
	addr := strings.TrimSpace(string(body))
	if addr == "" {
		return "", errors.New("best server response was empty")
	}
	return addr, nil
}

// Servers returns the FSD server list from the v3 data feed
func (f *Fetcher) Servers(ctx context.Context) ([]Server, error) {
	status, err := f.get(ctx, f.statusURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	feed := gjson.GetBytes(status, "data.v3.0")
	if !feed.Exists() {
		feed = gjson.GetBytes(status, "data.v3")
	}
	if feed.String() == "" {
		return nil, errors.New("status has no data.v3 feed")
	}

	data, err := f.get(ctx, feed.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data feed: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("data feed is not valid JSON")
	}

	var servers []Server
	gjson.GetBytes(data, "servers").ForEach(func(_, v gjson.Result) bool {
		servers = append(servers, Server{
			Ident:           v.Get("ident").String(),
			Address:         v.Get("hostname_or_ip").String(),
			Location:        v.Get("location").String(),
			Name:            v.Get("name").String(),
			AcceptsNewUsers: v.Get("clients_connection_allowed").Bool(),
		})
		return true
	})
	if len(servers) == 0 {
		return nil, ErrNoServers
	}
	f.log.Debug().Int("count", len(servers)).Msg("fetched server list")
	return servers, nil
}

// get downloads url with retries
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	var err error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		var body []byte
		body, err = f.download(ctx, url)
		if err == nil {
			return body, nil
		}

		f.log.Warn().Err(err).Int("attempt", attempt).Int("max", f.maxRetries).Str("url", url).Msg("download failed")

		if attempt < f.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.retryDelay * time.Duration(attempt)):
			}
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", f.maxRetries, err)
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}
