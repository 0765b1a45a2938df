package logger

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseLogger(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantSize   int
	}{
		{
			name: "Implicit OK",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "hello")
			},
			wantStatus: http.StatusOK,
			wantSize:   5,
		},
		{
			name: "Explicit status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantSize:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			lw := New(rr)
			tt.handler(lw, httptest.NewRequest(http.MethodGet, "/", nil))

			if lw.Status() != tt.wantStatus {
				t.Errorf("want status %d, got %d", tt.wantStatus, lw.Status())
			}
			if lw.Size() != tt.wantSize {
				t.Errorf("want size %d, got %d", tt.wantSize, lw.Size())
			}
			if rr.Code != tt.wantStatus {
				t.Errorf("want recorded status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}
