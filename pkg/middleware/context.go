package middleware

// ContextKey namespaces context values to avoid collisions, matching the
// teacher's pkg/middleware/auth.go pattern.
type ContextKey string

const (
	PrincipalEmailKey ContextKey = "principal_email"
)
