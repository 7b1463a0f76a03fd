package graph

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
)

type Option func(g *Graph)

// unsetEndpoint names the endpoint in errors when no server url is configured.
const unsetEndpoint = "<unset>"

// Graph is the connection handle to the metadata service. It is safe for
// concurrent use once constructed.
type Graph struct {
	base   url.URL
	http   *http.Client
	config ClientConfig

	mu           sync.Mutex
	serverConfig ServerConfig
}

func WithHttpClient(httpClient *http.Client) Option {
	return func(g *Graph) {
		g.http = httpClient
	}
}

// NewGraph connects to the metadata service described by cfg. The connection
// test fetches the server config, which is cached for Config.
func NewGraph(ctx context.Context, cfg ClientConfig, opts ...Option) (*Graph, error) {
	if cfg.Server == "" {
		return nil, apperr.NewConnection(unsetEndpoint, apperr.NewValidation("metadata service server url is empty"))
	}
	base, err := url.Parse(cfg.Server)
	if err != nil {
		return nil, apperr.NewConnection(cfg.Server, apperr.NewValidationWrap("invalid server url", err))
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, apperr.NewConnection(cfg.Server, apperr.NewValidation(fmt.Sprintf("unsupported url scheme %q", base.Scheme)))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.DisableSSLVerification {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	g := &Graph{
		base:   *base,
		config: cfg,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	sc, err := g.fetchConfig(ctx)
	if err != nil {
		return nil, apperr.NewConnection(cfg.Server, err)
	}
	g.serverConfig = sc

	slog.Info("Connected to metadata service", "server", cfg.Server, "version", sc.Version())
	return g, nil
}

func (g *Graph) Endpoint() string {
	return g.base.String()
}

// Config returns the server config, fetching it again only if the cached copy is empty.
func (g *Graph) Config(ctx context.Context) (ServerConfig, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.serverConfig != nil {
		return g.serverConfig, nil
	}

	sc, err := g.fetchConfig(ctx)
	if err != nil {
		return nil, err
	}
	g.serverConfig = sc
	return sc, nil
}

func (g *Graph) Healthy(ctx context.Context) bool {
	request, err := g.newRequest(ctx, http.MethodGet, "/health")
	if err != nil {
		return false
	}
	resp, err := g.http.Do(request)
	if err != nil {
		slog.Debug("Metadata service health check failed", "error", err, "server", g.Endpoint())
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

func (g *Graph) fetchConfig(ctx context.Context) (ServerConfig, error) {
	var sc ServerConfig
	if err := g.do(ctx, http.MethodGet, "/config", &sc); err != nil {
		return nil, err
	}
	if sc == nil {
		sc = ServerConfig{}
	}
	return sc, nil
}

func (g *Graph) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	reqURL := g.base.JoinPath(path)
	request, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-RestLi-Protocol-Version", "2.0.0")
	if g.config.Token != "" {
		request.Header.Set("Authorization", "Bearer "+g.config.Token)
	}
	for k, v := range g.config.ExtraHeaders {
		request.Header.Set(k, v)
	}
	return request, nil
}

func (g *Graph) do(ctx context.Context, method, path string, respData any) error {
	request, err := g.newRequest(ctx, method, path)
	if err != nil {
		return err
	}

	resp, err := g.http.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("unauthorized: status code %d, check the access token", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, respData); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
