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

package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
)

// Native is the in-process signing backend built on crypto/rsa.
type Native struct{}

// Generate creates an in-memory RSA-2048 key pair.
func (Native) Generate() (KeyHandle, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}
	return &nativeHandle{key: key}, nil
}

type nativeHandle struct {
	key *rsa.PrivateKey
}

func (h *nativeHandle) JWK() JWK {
	return jwkFromComponents(h.key.N, h.key.E)
}

func (h *nativeHandle) Sign(input []byte) ([]byte, error) {
	sum := sha256.Sum256(input)
	sig, err := rsa.SignPKCS1v15(rand.Reader, h.key, crypto.SHA256, sum[:])
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	return sig, nil
}

// Close drops the key reference; the material lives only in memory.
func (h *nativeHandle) Close() error {
	h.key = nil
	return nil
}
