package devserver

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"blogfront/pkg/blog"
	"blogfront/pkg/logger"
)

// requestMiddleware puts the caller's request ID, or a fresh one, into the
// context and echoes it back. Every answer is JSON.
func (api *API) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(blog.RequestIDHeader)
		if reqID == "" {
			id, err := uuid.NewV4()
			if err != nil {
				log.Errorf("[requestMiddleware][from:%v] request ID: %v", r.RemoteAddr, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			reqID = id.String()
		}

		h := w.Header()
		h.Set(blog.RequestIDHeader, reqID)
		h.Set("Content-Type", "application/json")
		next.ServeHTTP(w, r.WithContext(blog.WithRequestID(r.Context(), reqID)))
	})
}

func (api *API) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := logger.New(w)

		next.ServeHTTP(lw, r)

		log.WithFields(log.Fields{
			"request_id":   blog.GetRequestID(r.Context()),
			"method":       r.Method,
			"path":         r.URL.Path,
			"status":       lw.Status(),
			"size":         lw.Size(),
			"duration_sec": time.Since(start).Seconds(),
		}).Info("[loggingMiddleware] request served")
	})
}

// requestTag is the short request ID used in handler log lines.
func requestTag(r *http.Request) string {
	return blog.Shorten(blog.GetRequestID(r.Context()))
}
