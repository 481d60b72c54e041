package loyalty

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Response is the raw outcome of one API call. A transport failure leaves
// StatusCode at 0 and Body empty.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs a single request/response cycle against the API.
type Transport struct {
	client    *http.Client
	userAgent string
	debug     bool
	debugOut  io.Writer
	logger    *slog.Logger
}

func NewTransport(cfg Config) *Transport {
	cfg = cfg.withDefaults()

	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		cfg.Logger.Warn("TLS certificate verification is disabled for the loyalty API", "host", cfg.Host)
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Transport{
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(base),
		},
		userAgent: cfg.UserAgent,
		debug:     cfg.Debug,
		debugOut:  cfg.DebugOut,
		logger:    cfg.Logger,
	}
}

func endpointURL(host, endpoint string) string {
	return strings.TrimSuffix(host, "/") + "/" + strings.TrimPrefix(endpoint, "/")
}

// Call sends body to host/endpoint. The Authorization header always carries
// token verbatim, even when it is empty (the login call has no token).
func (t *Transport) Call(ctx context.Context, host, endpoint, method string, body []byte, apiKey, token string) (Response, error) {
	url := endpointURL(host, endpoint)

	var reader io.Reader
	if body != nil && method != http.MethodGet {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Response{}, wrapErr(KindTransport, "transport.call", "could not create request", err)
	}

	// one connection per call
	req.Close = true

	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("Authorization", token)
	req.Header.Set("User-Agent", t.userAgent)

	if t.debug {
		fmt.Fprintf(t.debugOut, "%s %s\n", method, url)
		req.Header.Write(t.debugOut)
		fmt.Fprintln(t.debugOut)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("failed to communicate with the loyalty API", "endpoint", endpoint, "error", err)
		return Response{}, wrapErr(KindTransport, "transport.call", "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.logger.Debug("could not read response body from the loyalty API", "endpoint", endpoint, "error", err)
		return Response{StatusCode: resp.StatusCode}, wrapErr(KindTransport, "transport.call", "could not read response body", err)
	}

	return Response{StatusCode: resp.StatusCode, Body: data}, nil
}
