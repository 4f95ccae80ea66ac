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

// Package format provides the base64url and compact-JWT encoding helpers
// shared by the protocol components.
package format

import (
	"encoding/base64"
)

// EncodeBase64URL encodes bytes as base64url without padding, as required
// by the JWT and JWK specs.
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64URL decodes a base64url-encoded string (with or without padding).
func DecodeBase64URL(s string) ([]byte, error) {
	// Try without padding first (most common in JWTs)
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		// Try with padding
		b, err = base64.URLEncoding.DecodeString(s)
	}
	return b, err
}

// EncodeBase64Std encodes bytes as standard base64 with padding. Used for
// the HTTP Basic client credentials on the token endpoint.
func EncodeBase64Std(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
