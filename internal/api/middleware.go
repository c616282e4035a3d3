package api

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger creates a structured logger middleware for requests
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			entry := logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"latency":    time.Since(startTime),
				"client_ip":  r.RemoteAddr,
				"user_agent": r.UserAgent(),
			})
			if r.URL.RawQuery != "" {
				entry = entry.WithField("query", r.URL.RawQuery)
			}

			switch {
			case rec.status >= 500:
				entry.Error("Internal Server Error")
			case rec.status >= 400:
				entry.Warn("Client Error")
			default:
				entry.Info("Request completed")
			}
		})
	}
}
