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

// Package signer provides the ephemeral RSA key generation and RS256
// signing backends used for proof-of-possession JWTs. Two interchangeable
// implementations exist: an in-process one built on crypto/rsa, and a
// fallback that shells out to the openssl CLI.
package signer

import (
	"errors"
	"math/big"
	"os"

	"github.com/injibr/inji-certify/internal/format"
)

// ErrBackendUnavailable indicates the selected backend cannot produce keys
// or signatures on this system (missing binary, unparseable key dump).
var ErrBackendUnavailable = errors.New("signer backend unavailable")

// JWK is the RSA public key representation embedded in the proof JWT header.
type JWK struct {
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeyHandle is an ephemeral RSA-2048 key pair scoped to a single proof.
// Close releases the key material and must be called on every path; for the
// openssl backend it deletes the temporary key file.
type KeyHandle interface {
	// JWK returns the public half of the key pair.
	JWK() JWK
	// Sign returns the PKCS#1 v1.5 / SHA-256 signature over input.
	Sign(input []byte) ([]byte, error)
	Close() error
}

// Signer creates ephemeral key pairs. Proof building generates a fresh key
// per proof, so Generate is called once per credential request round.
type Signer interface {
	Generate() (KeyHandle, error)
}

// Select picks the signing backend. The native crypto/rsa backend is
// preferred; the openssl CLI backend is used when CERTIFY_SIGNER=openssl is
// set (and the binary is available), mirroring the capability-based
// fallback of wallets that lack in-process RSA support.
func Select() (Signer, error) {
	if os.Getenv("CERTIFY_SIGNER") == "openssl" {
		if !OpenSSLAvailable() {
			return nil, ErrBackendUnavailable
		}
		return &OpenSSL{}, nil
	}
	return Native{}, nil
}

// bigIntBytes encodes n as a big-endian byte string. With length 0 the
// minimal encoding is returned (no leading zero byte); a positive length
// zero-pads to that many bytes.
func bigIntBytes(n *big.Int, length int) []byte {
	b := n.Bytes()
	for len(b) < length {
		b = append([]byte{0}, b...)
	}
	return b
}

// jwkFromComponents builds the JWK for an RSA public key given its modulus
// and public exponent.
func jwkFromComponents(n *big.Int, e int) JWK {
	return JWK{
		Kty: "RSA",
		N:   format.EncodeBase64URL(bigIntBytes(n, 0)),
		E:   format.EncodeBase64URL(bigIntBytes(big.NewInt(int64(e)), 0)),
	}
}
