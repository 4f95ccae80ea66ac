// Copyright 2026 Dominik Schlosser
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pkce implements the Proof Key for Code Exchange (RFC 7636)
// verifier/challenge generation used by the authorization code flow.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/injibr/inji-certify/internal/format"
)

// Method is the code_challenge_method sent to the authorization server.
const Method = "S256"

// Pair is a PKCE code_verifier and its derived code_challenge.
// The verifier must only ever be transmitted in the token exchange request;
// the challenge goes into the authorize request.
type Pair struct {
	Verifier  string
	Challenge string
}

// Generate creates a fresh PKCE pair. The verifier is 43 characters of
// base64url-encoded random data (32 bytes), and the challenge is the
// unpadded base64url encoding of SHA-256(verifier).
func Generate() (Pair, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return Pair{}, fmt.Errorf("generating code verifier: %w", err)
	}

	verifier := format.EncodeBase64URL(raw)
	sum := sha256.Sum256([]byte(verifier))

	return Pair{
		Verifier:  verifier,
		Challenge: format.EncodeBase64URL(sum[:]),
	}, nil
}
