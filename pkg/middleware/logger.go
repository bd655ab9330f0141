package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdf-saas/orchestrator/pkg/requestid"
)

// Logger logs the start and the end of every request. Both lines carry the request id; the
// end line adds the job id of /jobs/{id} routes and the failed pipeline stage, if any.
func Logger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := zap.S().Named("http").Desugar()
			start := time.Now()
			path := r.URL.Path
			requestID := requestid.FromRequest(r)

			log.Info("Request started",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.String("query", r.URL.RawQuery),
				zap.String("ip", getClientIP(r)),
				zap.String("user-agent", r.UserAgent()),
				zap.Int64("content_length", r.ContentLength),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zapcore.Field{
				zap.String("request_id", requestID),
				zap.Int("status", ww.Status()),
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.Duration("latency", time.Since(start)),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if jobID := chi.URLParam(r, "id"); jobID != "" {
				fields = append(fields, zap.String("job_id", jobID))
			}
			if stage := ww.Header().Get(FailedStageHeader); stage != "" {
				fields = append(fields, zap.String("failed_stage", stage))
			}

			msg := "Request completed"
			switch {
			case ww.Status() >= 500:
				log.Error(msg, fields...)
			case ww.Status() >= 400:
				log.Warn(msg, fields...)
			default:
				log.Info(msg, fields...)
			}
		})
	}
}

// getClientIP extracts the real client IP from proxy headers, falling back to RemoteAddr
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
