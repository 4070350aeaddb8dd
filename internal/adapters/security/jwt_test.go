package security_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stylingadventures/moderation-service/internal/adapters/security"
)

type testKeys struct {
	private   *rsa.PrivateKey
	publicPEM string
}

func newTestKeys(t *testing.T) testKeys {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return testKeys{private: key, publicPEM: string(pub)}
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestVerifyValidToken(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	verifier, err := security.NewJWTVerifier(keys.publicPEM)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	raw := signToken(t, keys.private, jwt.MapClaims{
		"user_id": "user-1",
		"role":    "moderator",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	claims, err := verifier.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.SubjectID != "user-1" || claims.Role != "moderator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	verifier, err := security.NewJWTVerifier(keys.publicPEM)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	raw := signToken(t, keys.private, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := verifier.Verify(raw); err == nil {
		t.Fatalf("expired token should fail verification")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	other := newTestKeys(t)
	verifier, err := security.NewJWTVerifier(keys.publicPEM)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	raw := signToken(t, other.private, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if _, err := verifier.Verify(raw); err == nil {
		t.Fatalf("token signed with another key should fail verification")
	}
}

func TestVerifyRejectsMissingUserID(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	verifier, err := security.NewJWTVerifier(keys.publicPEM)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	raw := signToken(t, keys.private, jwt.MapClaims{
		"role": "moderator",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	if _, err := verifier.Verify(raw); err == nil {
		t.Fatalf("token without user_id should fail verification")
	}
}

func TestNewJWTVerifierRejectsBadKey(t *testing.T) {
	t.Parallel()

	if _, err := security.NewJWTVerifier(""); err == nil {
		t.Fatalf("empty key should be rejected")
	}
	if _, err := security.NewJWTVerifier("not a pem"); err == nil {
		t.Fatalf("garbage key should be rejected")
	}
}
