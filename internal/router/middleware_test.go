package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveAllowedOrigin(t *testing.T) {
	cases := []struct {
		name             string
		origin           string
		allowed          []string
		allowCredentials bool
		want             string
	}{
		{name: "wildcard", origin: "https://portale.example.com", allowed: []string{"*"}, want: "*"},
		{name: "wildcard with credentials echoes origin", origin: "https://portale.example.com", allowed: []string{"*"}, allowCredentials: true, want: "https://portale.example.com"},
		{name: "allow list match", origin: "https://admin.portale.it", allowed: []string{"https://admin.portale.it", "https://partner.portale.it"}, want: "https://admin.portale.it"},
		{name: "case insensitive match", origin: "https://Admin.Portale.IT", allowed: []string{"https://admin.portale.it"}, want: "https://Admin.Portale.IT"},
		{name: "unmatched origin", origin: "https://evil.example.com", allowed: []string{"https://admin.portale.it"}, want: ""},
		{name: "empty allow list", origin: "https://admin.portale.it", allowed: nil, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveAllowedOrigin(tc.origin, tc.allowed, tc.allowCredentials)
			if got != tc.want {
				t.Fatalf("origin want %q got %q", tc.want, got)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "client-supplied-id")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "client-supplied-id" {
		t.Fatalf("response header should echo supplied id, got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "client-supplied-id" {
		t.Fatalf("context request id want client-supplied-id got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w2.Header().Get(requestIDHeader) == "" {
		t.Fatalf("request without header should get a generated id")
	}
	if w2.Header().Get(requestIDHeader) == "client-supplied-id" {
		t.Fatalf("generated id should not repeat a previous client id")
	}
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("", nil))
	r.GET("/client/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/client/orders", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestJWTAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("test-secret-key-that-is-long-enough", nil))
	r.GET("/partner/items", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for _, header := range []string{"", "Token abc", "Bearer"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/partner/items", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)

		var resp struct {
			StatusCode int `json:"status_code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response failed: %v", err)
		}
		if resp.StatusCode != 401 {
			t.Fatalf("header %q: status_code want 401 got %d", header, resp.StatusCode)
		}
	}
}
