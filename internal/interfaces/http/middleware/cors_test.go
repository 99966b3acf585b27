package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsEngine(config CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(config))
	r.POST("/api/v1/substructure/match", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.OPTIONS("/api/v1/substructure/match", func(c *gin.Context) { c.Status(http.StatusMethodNotAllowed) })
	return r
}

func serve(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/api/v1/substructure/match", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_PreflightRequest(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://app.example.com"}

	w := serve(corsEngine(config), http.MethodOptions, "https://app.example.com")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Body.String())
}

func TestCORS_SimpleRequest(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://app.example.com"}

	w := serve(corsEngine(config), http.MethodPost, "https://app.example.com")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID")
	assert.Equal(t, []string{"Origin", "Access-Control-Request-Method", "Access-Control-Request-Headers"}, w.Header().Values("Vary"))
}

func TestCORS_OriginMatching(t *testing.T) {
	tests := []struct {
		name     string
		origins  []string
		wildcard bool
		creds    bool
		origin   string
		want     string
	}{
		{"disallowed origin", []string{"https://app.example.com"}, false, false, "https://evil.example.org", ""},
		{"case insensitive", []string{"https://App.Example.com"}, false, false, "https://app.example.com", "https://app.example.com"},
		{"star", []string{"*"}, false, false, "https://any.org", "*"},
		{"star with credentials echoes origin", []string{"*"}, false, true, "https://any.org", "https://any.org"},
		{"subdomain wildcard", []string{"*.example.com"}, true, false, "https://lab.example.com", "https://lab.example.com"},
		{"subdomain wildcard disabled", []string{"*.example.com"}, false, false, "https://lab.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultCORSConfig()
			config.AllowedOrigins = tt.origins
			config.AllowWildcard = tt.wildcard
			config.AllowCredentials = tt.creds

			w := serve(corsEngine(config), http.MethodPost, tt.origin)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.creds {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestCORS_NoOriginHeader(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"*"}

	w := serve(corsEngine(config), http.MethodOptions, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

//Personal.AI order the ending
