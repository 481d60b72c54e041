package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"loyaltygo/loyalty"
)

const maxCustomerBody = 64 << 10

type customerAdder interface {
	AddCustomer(ctx context.Context, payload loyalty.Customer) loyalty.Result
}

func serveCmd(opts *globalOptions) *cobra.Command {
	var address, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept customer registrations over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configFile)
			if err != nil {
				return err
			}
			cfg.Options.Debug = cfg.Options.Debug || opts.debug
			if address != "" {
				cfg.Server.Address = address
			}
			if port != "" {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, closeLog, err := openClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeLog()
			defer client.Close()

			return StartServer(ctx, net.JoinHostPort(cfg.Server.Address, cfg.Server.Port), client)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address (overrides the configuration file)")
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides the configuration file)")
	return cmd
}

// StartServer serves the customer registration endpoint until ctx is done.
func StartServer(ctx context.Context, addr string, client customerAdder) error {

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(client),
		ReadHeaderTimeout: 5 * time.Second,
		// one upstream call is bounded at 10s, plus the login when the token is renewed
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Server failed to start", "error", err)
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("Stopping server")
	return srv.Shutdown(shutdownCtx)
}

func newRouter(client customerAdder) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID)

	r.HandleFunc("/customers", addCustomerHandler(client)).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

type requestIDKey struct{}

// requestID tags every request with an X-Request-ID, reusing the caller's.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func addCustomerHandler(client customerAdder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := requestIDFrom(r.Context())

		var payload loyalty.Customer
		dec := json.NewDecoder(io.LimitReader(r.Body, maxCustomerBody))
		if err := dec.Decode(&payload); err != nil || len(payload) == 0 {
			logger.Warn("rejecting customer request", "request_id", id, "error", err)
			writeJSON(w, http.StatusBadRequest, loyalty.Result{
				Status:  loyalty.StatusError,
				Message: "request body must be a JSON object with the customer fields",
			})
			return
		}

		start := time.Now()
		res := client.AddCustomer(r.Context(), payload)
		logger.Info("customer request", "request_id", id, "status", res.Status, "api_status", res.StatusCode, "duration", time.Since(start))

		writeJSON(w, httpStatus(res), res)
	}
}

// httpStatus maps a Result onto the front door's status code.
func httpStatus(res loyalty.Result) int {
	switch res.Status {
	case loyalty.StatusSuccess:
		return http.StatusCreated
	case loyalty.StatusWarning:
		return http.StatusConflict
	}
	if res.StatusCode >= 400 && res.StatusCode < 500 && res.StatusCode != http.StatusUnauthorized && res.StatusCode != http.StatusForbidden {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("could not write response", "error", err)
	}
}
