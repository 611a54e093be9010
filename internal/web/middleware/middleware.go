package middleware

// MiddlewareManager holds what the route middlewares need
type MiddlewareManager struct {
	token string
}

// NewMiddlewareManager creates a middleware manager. token is the shared
// bearer token for the local API; empty disables the check.
func NewMiddlewareManager(token string) *MiddlewareManager {
	return &MiddlewareManager{token: token}
}
