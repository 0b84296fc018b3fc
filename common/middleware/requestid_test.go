package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generates id when absent", incoming: ""},
		{name: "propagates existing id", incoming: "feed-req-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/ingest/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.NotEmpty(t, captured)
			assert.Equal(t, captured, w.Header().Get(RequestIDHeader))
			if tt.incoming == "" {
				_, err := uuid.Parse(captured)
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.incoming, captured)
			}
		})
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Equal(t, "", GetRequestID(context.Background()))
	assert.Equal(t, "x", GetRequestID(WithRequestID(context.Background(), "x")))
}
