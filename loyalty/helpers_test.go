package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey   = "key-123"
	testUsername = "partner"
	testPassword = "s3cret"
)

// fakeAPI is an httptest stand-in for the loyalty API.
type fakeAPI struct {
	server *httptest.Server

	logins    atomic.Int32
	customers atomic.Int32

	mu             sync.Mutex
	loginStatus    int
	loginBody      string
	customerStatus int
	customerBody   string
	lastHeaders    http.Header
	lastCustomer   map[string]any
	lastLogin      map[string]any
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{
		loginStatus:    http.StatusOK,
		customerStatus: http.StatusOK,
		customerBody:   `{"barcode":"123","email":"a@b.com","firstName":"Jan"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		api.logins.Add(1)
		api.mu.Lock()
		defer api.mu.Unlock()

		api.lastHeaders = r.Header.Clone()
		api.lastLogin = decodeBody(t, r.Body)
		w.WriteHeader(api.loginStatus)
		io.WriteString(w, api.loginBody)
	})
	mux.HandleFunc("/partner/customers/full", func(w http.ResponseWriter, r *http.Request) {
		api.customers.Add(1)
		api.mu.Lock()
		defer api.mu.Unlock()

		api.lastHeaders = r.Header.Clone()
		api.lastCustomer = decodeBody(t, r.Body)
		w.WriteHeader(api.customerStatus)
		io.WriteString(w, api.customerBody)
	})

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)

	api.setLoginToken(makeToken(t, time.Now().Add(time.Hour)))
	return api
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("request body is not JSON: %s", data)
		return nil
	}
	return m
}

func (a *fakeAPI) setLoginToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginBody = `{"token":"` + token + `"}`
}

func (a *fakeAPI) setLogin(status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginStatus = status
	a.loginBody = body
}

func (a *fakeAPI) setCustomer(status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.customerStatus = status
	a.customerBody = body
}

func (a *fakeAPI) headers() http.Header {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastHeaders
}

// makeToken signs a JWT expiring at exp.
func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		Subject:   testUsername,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func testConfig(api *fakeAPI, logs *bytes.Buffer) Config {
	return Config{
		APIKey:   testAPIKey,
		Username: testUsername,
		Password: testPassword,
		Host:     api.server.URL + "/",
		Logger:   slog.New(slog.NewTextHandler(logs, nil)),
		DebugOut: io.Discard,
	}
}

func tempFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "token.json"))
}

func newTestClient(t *testing.T, api *fakeAPI, store TokenStore, opts ...func(*Config)) (*Client, *bytes.Buffer) {
	t.Helper()

	logs := &bytes.Buffer{}
	cfg := testConfig(api, logs)
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := NewClient(context.Background(), cfg, store)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, logs
}

func testConfigLogger(logs *bytes.Buffer) Config {
	return Config{
		Logger:   slog.New(slog.NewTextHandler(logs, nil)),
		DebugOut: io.Discard,
	}
}
