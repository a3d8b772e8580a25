package auth

import "net/http"

// Session id transport headers, in precedence order. The authorization value
// is used verbatim: clients send the raw session id there, not a Bearer
// token, so no prefix is stripped.
var sessionHeaders = []string{"x-session-id", "authorization", "sessionid"}

// ExtractSessionID pulls the session identifier from the request headers.
// The headers are tried in order and the first non-empty value wins. Returns
// an empty string when no header carries a session id.
func ExtractSessionID(r *http.Request) string {
	for _, name := range sessionHeaders {
		if v := r.Header.Get(name); v != "" {
			return v
		}
	}
	return ""
}
