package ports

// AuthClaims is the verified identity attached to admin/API requests.
type AuthClaims struct {
	SubjectID string
	Role      string
}

// TokenVerifier parses and verifies a bearer token into claims.
type TokenVerifier interface {
	Verify(token string) (AuthClaims, error)
}
