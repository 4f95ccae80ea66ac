package proof

import (
	"testing"
	"time"

	"github.com/injibr/inji-certify/internal/format"
	"github.com/injibr/inji-certify/internal/keys"
	"github.com/injibr/inji-certify/internal/signer"
)

func fixedClock(t *testing.T, at time.Time) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = old })
}

func TestBuild_ClaimsRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0)
	fixedClock(t, now)

	b := &Builder{Signer: signer.Native{}}
	jwt, err := b.Build("https://issuer.example/certify", "client-123", "abc")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	header, payload, _, err := format.ParseJWTParts(jwt)
	if err != nil {
		t.Fatalf("parsing proof JWT: %v", err)
	}

	if header["typ"] != Typ {
		t.Errorf("typ = %v, want %s", header["typ"], Typ)
	}
	if header["alg"] != "RS256" {
		t.Errorf("alg = %v, want RS256", header["alg"])
	}
	if _, ok := header["jwk"].(map[string]any); !ok {
		t.Error("header missing embedded jwk")
	}

	want := map[string]any{
		"aud":   "https://issuer.example/certify",
		"iat":   float64(now.Unix()),
		"exp":   float64(now.Unix() + 300),
		"iss":   "client-123",
		"sub":   "client-123",
		"nonce": "abc",
	}
	if len(payload) != len(want) {
		t.Errorf("unexpected extra claims: %v", payload)
	}
	for k, v := range want {
		if payload[k] != v {
			t.Errorf("claim %s = %v, want %v", k, payload[k], v)
		}
	}
}

func TestBuild_AnonymousOmitsIssSubNonce(t *testing.T) {
	b := &Builder{Signer: signer.Native{}}
	jwt, err := b.Build("https://issuer.example/certify", "", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, payload, _, err := format.ParseJWTParts(jwt)
	if err != nil {
		t.Fatalf("parsing proof JWT: %v", err)
	}

	for _, claim := range []string{"iss", "sub", "nonce"} {
		if _, ok := payload[claim]; ok {
			t.Errorf("claim %s must be omitted for anonymous wallets", claim)
		}
	}
	if len(payload) != 3 {
		t.Errorf("expected exactly aud/iat/exp, got %v", payload)
	}
}

func TestBuild_ExpiryWindow(t *testing.T) {
	b := &Builder{Signer: signer.Native{}}
	jwt, err := b.Build("aud", "", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, payload, _, err := format.ParseJWTParts(jwt)
	if err != nil {
		t.Fatalf("parsing proof JWT: %v", err)
	}
	iat := int64(payload["iat"].(float64))
	exp := int64(payload["exp"].(float64))
	if exp-iat != 300 {
		t.Errorf("exp - iat = %d, want 300", exp-iat)
	}
}

// Two builds with identical inputs must produce distinct key pairs, each
// verifiable against its own embedded JWK.
func TestBuild_FreshKeyPerProof(t *testing.T) {
	b := &Builder{Signer: signer.Native{}}

	jwts := make([]string, 2)
	moduli := make([]string, 2)
	for i := range jwts {
		jwt, err := b.Build("https://issuer.example/certify", "client-123", "")
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		jwts[i] = jwt

		header, _, sig, err := format.ParseJWTParts(jwt)
		if err != nil {
			t.Fatalf("parsing proof JWT: %v", err)
		}
		jwk, ok := header["jwk"].(map[string]any)
		if !ok {
			t.Fatal("header missing jwk")
		}
		moduli[i], _ = jwk["n"].(string)

		pub, err := keys.ParseRSAJWK(jwk)
		if err != nil {
			t.Fatalf("parsing embedded JWK: %v", err)
		}
		signingInput, err := format.SigningInput(jwt)
		if err != nil {
			t.Fatalf("SigningInput: %v", err)
		}
		if err := keys.VerifyRS256(pub, []byte(signingInput), sig); err != nil {
			t.Errorf("proof %d does not verify against its own JWK: %v", i, err)
		}
	}

	if moduli[0] == moduli[1] {
		t.Error("two proofs reused the same key pair")
	}
}
