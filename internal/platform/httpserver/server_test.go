package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	bringlistservice "meetfix/contexts/event-coordination/bringlist-service"
	eventservice "meetfix/contexts/event-coordination/event-service"
	groupservice "meetfix/contexts/event-coordination/group-service"
	grouphttp "meetfix/contexts/event-coordination/group-service/transport/http"
	notificationservice "meetfix/contexts/event-coordination/notification-service"
	"meetfix/internal/app/directory"
)

func newTestServer() *Server {
	return newTestServerWithOptions(Options{Addr: ":0"})
}

func newTestServerWithOptions(opts Options) *Server {
	logger := slog.Default()
	groups := groupservice.NewInMemoryModule(nil, logger)
	events := eventservice.NewInMemoryModule(directory.Groups{Membership: groups.Service}, nil, logger)
	bringlist := bringlistservice.NewInMemoryModule(directory.Events{Queries: events.Queries, Membership: groups.Service}, nil, logger)
	notifications := notificationservice.NewInMemoryModule(directory.Recipients{
		Membership: groups.Service,
		Events:     events.Queries,
		Bringlist:  bringlist.Queries,
	}, nil, logger)
	return New(groups, events, bringlist, notifications, logger, opts)
}

func doRequest(server *Server, method string, path string, userID string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rr.Body.String())
	}
}

// createGroupWithMember creates a group owned by owner and joins member to it.
func createGroupWithMember(t *testing.T, server *Server, owner string, member string) grouphttp.GroupDetailResponse {
	t.Helper()
	rr := doRequest(server, http.MethodPost, "/v1/groups", owner, `{"name":"Friday crew"}`, map[string]string{"Idempotency-Key": "group-" + owner})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created grouphttp.GroupDetailResponse
	decodeBody(t, rr, &created)

	if member != "" {
		rr = doRequest(server, http.MethodPost, "/v1/groups/join", member, `{"invite_code":"`+created.Group.InviteCode+`"}`, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 on join, got %d body=%s", rr.Code, rr.Body.String())
		}
	}
	return created
}

func TestHealthAndReadiness(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodGet, "/healthz", "", "", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response %d %q", rr.Code, rr.Body.String())
	}
	rr = doRequest(server, http.MethodGet, "/readyz", "", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rr.Code)
	}

	failing := newTestServerWithOptions(Options{Ready: func(context.Context) error {
		return errors.New("database unreachable")
	}})
	rr = doRequest(failing, http.MethodGet, "/readyz", "", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestMetricsEndpointIsExposed(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodGet, "/metrics", "", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRoutesRequireUserHeader(t *testing.T) {
	server := newTestServer()
	tests := []struct {
		method string
		path   string
		body   string
	}{
		{method: http.MethodGet, path: "/v1/groups"},
		{method: http.MethodPost, path: "/v1/groups", body: `{"name":"x"}`},
		{method: http.MethodGet, path: "/v1/events/nearest"},
		{method: http.MethodPost, path: "/v1/items/item-1/claim"},
		{method: http.MethodGet, path: "/v1/notifications"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := doRequest(server, tt.method, tt.path, "", tt.body, nil)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
			}
			var resp errorResponse
			decodeBody(t, rr, &resp)
			if resp.Code != "unauthenticated" {
				t.Fatalf("unexpected error code %q", resp.Code)
			}
		})
	}
}

func TestRequestBodyValidation(t *testing.T) {
	server := newTestServer()
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "malformed json", body: `{"name":`, wantCode: "invalid_json"},
		{name: "unknown field", body: `{"name":"crew","colour":"red"}`, wantCode: "invalid_json"},
		{name: "missing name", body: `{}`, wantCode: "validation_failed"},
		{name: "max members too small", body: `{"name":"crew","max_members":1}`, wantCode: "validation_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(server, http.MethodPost, "/v1/groups", "owner", tt.body, map[string]string{"Idempotency-Key": "k"})
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
			}
			var resp errorResponse
			decodeBody(t, rr, &resp)
			if resp.Code != tt.wantCode {
				t.Fatalf("expected %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	server := newTestServerWithOptions(Options{CORSOrigins: []string{"https://app.meetfix.test"}})
	req := httptest.NewRequest(http.MethodOptions, "/v1/groups", nil)
	req.Header.Set("Origin", "https://app.meetfix.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.meetfix.test" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	server := newTestServerWithOptions(Options{RateLimit: 2})
	for i := 0; i < 2; i++ {
		if rr := doRequest(server, http.MethodGet, "/v1/groups", "owner", "", nil); rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	}
	if rr := doRequest(server, http.MethodGet, "/v1/groups", "owner", "", nil); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr := doRequest(server, http.MethodGet, "/v1/groups", "other", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected separate budget for another user, got %d", rr.Code)
	}
}

func TestSwaggerDocIsServed(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodGet, "/swagger/doc.json", "", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "MeetFix API") {
		t.Fatalf("unexpected swagger response %d", rr.Code)
	}
}
