package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stormfort/keygate/internal/metrics"
	"github.com/stormfort/keygate/internal/state"
)

func newBindingsRouter(t *testing.T) (*gin.Engine, *state.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := state.New(zerolog.Nop())
	h := NewBindingsHandler(store, metrics.New(nil), zerolog.Nop())

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r, store
}

func TestBindEndpoint(t *testing.T) {
	r, store := newBindingsRouter(t)
	k, _ := store.GenerateKey("bindme", "admin", 30, 2)

	w := doJSON(r, http.MethodPost, "/api/bind-key",
		`{"userId":"user1","email":"u1@example.com","key":"`+k.Key+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	e := decodeEnvelope(t, w)
	var res struct {
		CurrentUsers int `json:"currentUsers"`
		MaxUsers     int `json:"maxUsers"`
	}
	json.Unmarshal(e.Data, &res)
	if res.CurrentUsers != 1 || res.MaxUsers != 2 {
		t.Errorf("unexpected counts: %+v", res)
	}
}

func TestBindEndpoint_Failures(t *testing.T) {
	r, store := newBindingsRouter(t)
	k, _ := store.GenerateKey("full", "admin", 30, 1)
	store.Bind("user1", "", k.Key)

	tests := []struct {
		name string
		body string
	}{
		{"missing fields", `{"userId":"user2"}`},
		{"unknown key", `{"userId":"user2","key":"NOSUCHKEY1"}`},
		{"capacity full", `{"userId":"user2","key":"` + k.Key + `"}`},
		{"already bound here", `{"userId":"user1","key":"` + k.Key + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/bind-key", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if e := decodeEnvelope(t, w); e.Success || e.Message == "" {
				t.Errorf("failure envelope must carry a message: %+v", e)
			}
		})
	}
}

func TestUnbindEndpoint(t *testing.T) {
	r, store := newBindingsRouter(t)
	k, _ := store.GenerateKey("unbindme", "admin", 30, 1)
	store.Bind("user1", "", k.Key)

	w := doJSON(r, http.MethodPost, "/api/unbind-key", `{"userId":"user1","key":"WRONGKEY00"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("key mismatch should 400, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/unbind-key", `{"userId":"user1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/unbind-key", `{"userId":"user1"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("second unbind should 400, got %d", w.Code)
	}
}

func TestUserKeyEndpoint(t *testing.T) {
	r, store := newBindingsRouter(t)
	k, _ := store.GenerateKey("mine", "admin", 30, 3)
	store.Bind("user1", "", k.Key)

	w := doJSON(r, http.MethodGet, "/api/user-key/user1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	e := decodeEnvelope(t, w)
	var res struct {
		Key          string `json:"key"`
		CurrentUsers int    `json:"currentUsers"`
	}
	json.Unmarshal(e.Data, &res)
	if res.Key != k.Key || res.CurrentUsers != 1 {
		t.Errorf("unexpected lookup result: %+v", res)
	}

	w = doJSON(r, http.MethodGet, "/api/user-key/ghost", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unbound user should 400, got %d", w.Code)
	}
}
