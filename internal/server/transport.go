package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FreePeak/inventory-dashboard/internal/logger"
)

// ShutdownTimeout bounds how long Serve waits for open requests on shutdown
const ShutdownTimeout = 5 * time.Second

// maxLoggedBody caps how much of a request or response body is logged
const maxLoggedBody = 2048

// maxRequestBody is the largest request body accepted
const maxRequestBody = 1 << 20

// Serve listens on the given port until ctx is cancelled, then shuts down
// gracefully
func (s *Server) Serve(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting inventory dashboard on http://localhost%s", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down inventory dashboard...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errCh
}

// statusRecorder keeps the status code and the start of the body written
type statusRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if room := maxLoggedBody - r.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		r.body.Write(b[:room])
	}
	return r.ResponseWriter.Write(b)
}

// logRequests logs every API request and response. The dashboard page body
// is not logged. Bodies over maxRequestBody are rejected with 413.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var err error
			body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					logger.Warn("Rejected %s %s: body over %d bytes", r.Method, r.URL.String(), tooLarge.Limit)
					writeError(w, fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit))
					return
				}
				writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		logger.RequestLog(r.Method, r.URL.String(), r.RemoteAddr, truncate(string(body)))

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		responseBody := rec.body.String()
		if r.URL.Path == "/" {
			responseBody = ""
		}
		logger.ResponseLog(rec.status, r.URL.String(), truncate(responseBody))
	})
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}
