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

// Package proof builds the OID4VCI proof-of-possession JWT that binds an
// issued credential to a holder key.
package proof

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/injibr/inji-certify/internal/format"
	"github.com/injibr/inji-certify/internal/signer"
)

// Typ is the JWT typ header value identifying an OID4VCI proof.
const Typ = "openid4vci-proof+jwt"

// Lifetime is the proof validity window (exp - iat).
const Lifetime = 5 * time.Minute

// timeNow is the clock used for iat/exp. Override in tests.
var timeNow = time.Now

type header struct {
	Typ string     `json:"typ"`
	Alg string     `json:"alg"`
	JWK signer.JWK `json:"jwk"`
}

type payload struct {
	Aud   string `json:"aud"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
	Iss   string `json:"iss,omitempty"`
	Sub   string `json:"sub,omitempty"`
	Nonce string `json:"nonce,omitempty"`
}

// Builder assembles and signs proof JWTs using the injected signing backend.
// Every Build call generates a fresh ephemeral key pair.
type Builder struct {
	Signer signer.Signer
}

// Build returns a signed compact proof JWT.
//
// audience is the issuer's published identifier (not its base URL) and
// becomes the aud claim. clientID, when non-empty, is set as both iss and
// sub; anonymous wallets pass "" and both claims are omitted. nonce is the
// c_nonce from a challenge response and is omitted when empty.
func (b *Builder) Build(audience, clientID, nonce string) (string, error) {
	handle, err := b.Signer.Generate()
	if err != nil {
		return "", fmt.Errorf("generating proof key: %w", err)
	}
	defer handle.Close()

	now := timeNow()
	h := header{Typ: Typ, Alg: "RS256", JWK: handle.JWK()}
	p := payload{
		Aud:   audience,
		Iat:   now.Unix(),
		Exp:   now.Add(Lifetime).Unix(),
		Iss:   clientID,
		Sub:   clientID,
		Nonce: nonce,
	}

	headerJSON, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("marshaling proof header: %w", err)
	}
	payloadJSON, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling proof payload: %w", err)
	}

	signingInput := format.EncodeBase64URL(headerJSON) + "." + format.EncodeBase64URL(payloadJSON)
	sig, err := handle.Sign([]byte(signingInput))
	if err != nil {
		return "", fmt.Errorf("signing proof: %w", err)
	}

	return signingInput + "." + format.EncodeBase64URL(sig), nil
}
