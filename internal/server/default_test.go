package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/configuration"
	"github.com/iota-uz/mishloach/pkg/httpapi"
)

func TestDefault_JSONFallbacks(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&strings.Builder{})
	conf := &configuration.Configuration{Origin: "http://localhost:3000", RequestIDHeader: "X-Request-ID"}
	app := application.New(&application.ApplicationOptions{Logger: logger})

	srv, err := Default(&DefaultOptions{Logger: logger, Configuration: conf, Application: app})
	require.NoError(t, err)
	require.Len(t, app.Middleware(), 5)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "NOT_FOUND", env.Code)
	require.Equal(t, "rid-1", env.Meta["request_id"])
}

func TestUploadRateLimit_Disabled(t *testing.T) {
	require.Nil(t, UploadRateLimit(&configuration.Configuration{}))
	require.NotNil(t, UploadRateLimit(&configuration.Configuration{
		RateLimit: configuration.RateLimitOptions{Enabled: true, UploadRPM: 5},
	}))
}
