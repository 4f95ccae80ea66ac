package issuance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/injibr/inji-certify/internal/format"
	"github.com/injibr/inji-certify/internal/keys"
	"github.com/injibr/inji-certify/internal/proof"
	"github.com/injibr/inji-certify/internal/signer"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Proof:   &proof.Builder{Signer: signer.Native{}},
	}
}

func decodeRequest(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decoding credential request: %v", err)
	}
	return body
}

func proofJWT(t *testing.T, body map[string]any) string {
	t.Helper()
	proofObj, ok := body["proof"].(map[string]any)
	if !ok {
		t.Fatal("request has no proof object")
	}
	jwt, _ := proofObj["jwt"].(string)
	if jwt == "" {
		t.Fatal("proof has no jwt")
	}
	return jwt
}

// The issuer challenges the first proof with a c_nonce; the client must
// retry exactly once with a fresh proof carrying that nonce.
func TestRequest_CNonceChallengeRetry(t *testing.T) {
	var rounds int
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rounds++
		body := decodeRequest(t, r)
		_, payload, _, err := format.ParseJWTParts(proofJWT(t, body))
		if err != nil {
			t.Fatalf("parsing proof: %v", err)
		}

		switch rounds {
		case 1:
			if _, ok := payload["nonce"]; ok {
				t.Error("first proof must not carry a nonce")
			}
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_proof","c_nonce":"abc","c_nonce_expires_in":300}`)
		case 2:
			if payload["nonce"] != "abc" {
				t.Errorf("retry nonce = %v, want abc", payload["nonce"])
			}
			fmt.Fprint(w, `{"credential":{"credentialSubject":{"id":"did:example:1"}}}`)
		default:
			t.Error("more than two rounds sent")
		}
	}))
	defer issuer.Close()

	c := newTestClient(issuer.URL)
	result, err := c.Request("token", issuer.URL, "client-123", "ECACredential", "MGI")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if rounds != 2 {
		t.Errorf("rounds = %d, want 2", rounds)
	}
	if !result.OK() {
		t.Errorf("result status = %d, body %v", result.Status, result.Body)
	}
	if result.Credential() == nil {
		t.Error("successful result must expose the credential")
	}
}

// A second c_nonce challenge is a final failure, never a third round.
func TestRequest_NoRetryOnSecondChallenge(t *testing.T) {
	var rounds int
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rounds++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error":"invalid_proof","c_nonce":"nonce-%d"}`, rounds)
	}))
	defer issuer.Close()

	c := newTestClient(issuer.URL)
	result, err := c.Request("token", issuer.URL, "", "ECACredential", "MGI")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if rounds != 2 {
		t.Errorf("rounds = %d, want exactly 2", rounds)
	}
	if result.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", result.Status)
	}
	if result.CNonce() != "nonce-2" {
		t.Errorf("final body must be the second challenge, got %v", result.Body)
	}
}

// A c_nonce is only a challenge on a 400; a server error carrying one is
// final and must not trigger the second round.
func TestRequest_ServerErrorWithCNonceNotRetried(t *testing.T) {
	var rounds int
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rounds++
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"server_error","c_nonce":"abc"}`)
	}))
	defer issuer.Close()

	c := newTestClient(issuer.URL)
	result, err := c.Request("token", issuer.URL, "", "ECACredential", "MGI")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if rounds != 1 {
		t.Errorf("rounds = %d, want 1", rounds)
	}
	if result.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", result.Status)
	}
}

func TestRequest_NonChallengeErrorNotRetried(t *testing.T) {
	var rounds int
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rounds++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"insufficient_scope"}`)
	}))
	defer issuer.Close()

	c := newTestClient(issuer.URL)
	result, err := c.Request("token", issuer.URL, "", "ECACredential", "MGI")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if rounds != 1 {
		t.Errorf("rounds = %d, want 1", rounds)
	}
	if result.Status != http.StatusForbidden {
		t.Errorf("status = %d", result.Status)
	}
}

// A transport failure yields a synthetic status-0 result and no retry.
func TestRequest_TransportFailure(t *testing.T) {
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	issuer.Close() // connection refused from here on

	c := newTestClient(issuer.URL)
	result, err := c.Request("token", issuer.URL, "", "ECACredential", "MGI")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if result.Status != 0 {
		t.Errorf("status = %d, want 0", result.Status)
	}
	if result.Body["error"] != "timeout" {
		t.Errorf("body = %v, want synthetic timeout error", result.Body)
	}
	if result.Body["error_description"] == "" {
		t.Error("error_description must carry the failure detail")
	}
}

func TestPost_RequestShape(t *testing.T) {
	var got map[string]any
	var auth string
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/issuance/credential" {
			t.Errorf("path = %q", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		got = decodeRequest(t, r)
		fmt.Fprint(w, `{"credential":{}}`)
	}))
	defer issuer.Close()

	c := newTestClient(issuer.URL)
	if _, err := c.Request("token-xyz", issuer.URL, "", "CAFCredential", "MDA"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	if auth != "Bearer token-xyz" {
		t.Errorf("Authorization = %q", auth)
	}
	if got["format"] != "ldp_vc" {
		t.Errorf("format = %v", got["format"])
	}
	if got["doctype"] != "CAFCredential" {
		t.Errorf("doctype = %v", got["doctype"])
	}
	if got["issuerId"] != "MDA" {
		t.Errorf("issuerId = %v", got["issuerId"])
	}
	def, ok := got["credential_definition"].(map[string]any)
	if !ok {
		t.Fatal("missing credential_definition")
	}
	types, _ := def["type"].([]any)
	if len(types) != 2 || types[0] != "VerifiableCredential" || types[1] != "CAFCredential" {
		t.Errorf("credential_definition.type = %v", def["type"])
	}
}

func TestPost_IssuerIDOmittedWhenEmpty(t *testing.T) {
	var got map[string]any
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = decodeRequest(t, r)
		fmt.Fprint(w, `{"credential":{}}`)
	}))
	defer issuer.Close()

	c := newTestClient(issuer.URL)
	if _, err := c.Request("token", issuer.URL, "", "ECACredential", ""); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, ok := got["issuerId"]; ok {
		t.Error("issuerId must be omitted when not configured")
	}
}

// Full scenario: the mock issuer validates the proof signature against the
// embedded JWK and the audience before issuing.
func TestRequest_EndToEndWithProofValidation(t *testing.T) {
	const audience = "https://issuer.example/certify"

	var issued bool
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeRequest(t, r)
		jwt := proofJWT(t, body)

		header, payload, sig, err := format.ParseJWTParts(jwt)
		if err != nil {
			t.Fatalf("parsing proof: %v", err)
		}
		if payload["aud"] != audience {
			t.Errorf("aud = %v, want %s", payload["aud"], audience)
		}
		if header["typ"] != proof.Typ {
			t.Errorf("typ = %v", header["typ"])
		}

		if _, hasNonce := payload["nonce"]; !hasNonce {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_proof","c_nonce":"challenge-1"}`)
			return
		}
		if payload["nonce"] != "challenge-1" {
			t.Errorf("nonce = %v", payload["nonce"])
		}

		jwk, _ := header["jwk"].(map[string]any)
		pub, err := keys.ParseRSAJWK(jwk)
		if err != nil {
			t.Fatalf("parsing embedded JWK: %v", err)
		}
		signingInput, err := format.SigningInput(jwt)
		if err != nil {
			t.Fatalf("SigningInput: %v", err)
		}
		if err := keys.VerifyRS256(pub, []byte(signingInput), sig); err != nil {
			t.Errorf("proof signature invalid: %v", err)
		}

		issued = true
		fmt.Fprint(w, `{"credential":{"credentialSubject":{"name":"Maria"}}}`)
	}))
	defer issuer.Close()

	c := newTestClient(issuer.URL)
	result, err := c.Request("token", audience, "client-123", "ECACredential", "MGI")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if !issued {
		t.Fatal("issuer never issued")
	}
	cred := result.Credential()
	if cred == nil {
		t.Fatal("no credential in result")
	}
	subject, _ := cred["credentialSubject"].(map[string]any)
	if len(subject) == 0 {
		t.Error("credentialSubject must be non-empty")
	}
}
