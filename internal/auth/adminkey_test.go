package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHashAdminKey(t *testing.T) {
	h1 := HashAdminKey("super-secret")
	h2 := HashAdminKey("super-secret")
	h3 := HashAdminKey("other")

	if h1 != h2 {
		t.Error("hashing is not deterministic")
	}
	if h1 == h3 {
		t.Error("distinct keys must not collide")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestCheckAdminKey(t *testing.T) {
	stored := HashAdminKey("super-secret")

	if !CheckAdminKey("super-secret", stored) {
		t.Error("correct key rejected")
	}
	if CheckAdminKey("wrong", stored) {
		t.Error("wrong key accepted")
	}
	if CheckAdminKey("anything", "") {
		t.Error("empty stored hash must reject all keys")
	}
	if CheckAdminKey("", stored) {
		t.Error("empty candidate accepted")
	}
}

func TestExtractSessionID_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{
			name:     "no headers",
			headers:  nil,
			expected: "",
		},
		{
			name:     "x-session-id only",
			headers:  map[string]string{"x-session-id": "sid-1"},
			expected: "sid-1",
		},
		{
			name:     "authorization only, used verbatim",
			headers:  map[string]string{"authorization": "Bearer sid-2"},
			expected: "Bearer sid-2",
		},
		{
			name:     "sessionid only",
			headers:  map[string]string{"sessionid": "sid-3"},
			expected: "sid-3",
		},
		{
			name: "x-session-id wins over authorization",
			headers: map[string]string{
				"x-session-id":  "sid-1",
				"authorization": "sid-2",
			},
			expected: "sid-1",
		},
		{
			name: "authorization wins over sessionid",
			headers: map[string]string{
				"authorization": "sid-2",
				"sessionid":     "sid-3",
			},
			expected: "sid-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ExtractSessionID(r); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
