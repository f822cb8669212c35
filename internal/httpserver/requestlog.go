package httpserver

import (
	"net/http"
	"time"

	"github.com/fdg312/mealcart/internal/userctx"
	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogMiddleware logs one line per request. It runs inside auth so the
// acting user is known; rejected tokens are logged by the auth layer.
func RequestLogMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	log := logger.Named("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		}
		if user, ok := userctx.GetUserID(r.Context()); ok {
			fields = append(fields, zap.String("user_id", user))
		}
		switch {
		case rec.status >= 500:
			log.Error("request", fields...)
		case rec.status >= 400:
			log.Info("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	})
}
