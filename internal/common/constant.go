package common

// SessionCookieName is the cookie that carries the session token between
// the browser and the HTTP API.
const SessionCookieName = "session"

// AuthorizationHeaderName and BearerPrefix describe the header used by
// non-browser clients to present a session token.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// UndecryptablePlaceholder is shown in place of an item that failed to decrypt.
const UndecryptablePlaceholder = "<undecryptable>"
