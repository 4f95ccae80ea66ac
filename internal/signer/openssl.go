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
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// OpenSSL is the CLI signing backend. It generates the key to a temporary
// PEM file, recovers the public components from `openssl rsa -text` output,
// and signs via `openssl dgst`. Bin defaults to "openssl".
type OpenSSL struct {
	Bin string
}

// OpenSSLAvailable reports whether the openssl binary is on PATH.
func OpenSSLAvailable() bool {
	_, err := exec.LookPath("openssl")
	return err == nil
}

func (s *OpenSSL) bin() string {
	if s.Bin != "" {
		return s.Bin
	}
	return "openssl"
}

// Generate creates an RSA-2048 key in a temporary file and parses its
// public components from the tool's text dump. The temporary file is
// removed if any step fails; on success it lives until Close.
func (s *OpenSSL) Generate() (KeyHandle, error) {
	keyFile, err := os.CreateTemp("", "certify-proof-*.pem")
	if err != nil {
		return nil, fmt.Errorf("creating temp key file: %w", err)
	}
	keyPath := keyFile.Name()
	keyFile.Close()

	h := &opensslHandle{bin: s.bin(), keyPath: keyPath}

	if out, err := exec.Command(h.bin, "genrsa", "-out", keyPath, "2048").CombinedOutput(); err != nil {
		h.Close()
		return nil, fmt.Errorf("%w: openssl genrsa: %v: %s", ErrBackendUnavailable, err, out)
	}

	dump, err := exec.Command(h.bin, "rsa", "-in", keyPath, "-text", "-noout").Output()
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("%w: openssl rsa -text: %v", ErrBackendUnavailable, err)
	}

	n, e, err := parseKeyDump(string(dump))
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	h.jwk = jwkFromComponents(n, e)
	return h, nil
}

type opensslHandle struct {
	bin     string
	keyPath string
	jwk     JWK
}

func (h *opensslHandle) JWK() JWK {
	return h.jwk
}

// Sign writes input to a temporary file and signs it with the key file.
// The input file is always removed before returning.
func (h *opensslHandle) Sign(input []byte) ([]byte, error) {
	inFile, err := os.CreateTemp("", "certify-signing-input-*.bin")
	if err != nil {
		return nil, fmt.Errorf("creating temp input file: %w", err)
	}
	inPath := inFile.Name()
	defer os.Remove(inPath)

	if _, err := inFile.Write(input); err != nil {
		inFile.Close()
		return nil, fmt.Errorf("writing signing input: %w", err)
	}
	if err := inFile.Close(); err != nil {
		return nil, fmt.Errorf("writing signing input: %w", err)
	}

	sig, err := exec.Command(h.bin, "dgst", "-sha256", "-sign", h.keyPath, inPath).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: openssl dgst: %v", ErrBackendUnavailable, err)
	}
	return sig, nil
}

// Close deletes the temporary key file.
func (h *opensslHandle) Close() error {
	if h.keyPath == "" {
		return nil
	}
	err := os.Remove(h.keyPath)
	h.keyPath = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// parseKeyDump extracts the RSA modulus and public exponent from
// `openssl rsa -text -noout` output. The dump interleaves a "modulus:"
// section of colon-separated hex lines with a "publicExponent: 65537 (0x10001)"
// line.
func parseKeyDump(dump string) (*big.Int, int, error) {
	var modulusHex strings.Builder
	exponent := 0
	inModulus := false

	for _, line := range strings.Split(dump, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "modulus:") {
			inModulus = true
			continue
		}
		if strings.Contains(strings.ReplaceAll(lower, " ", ""), "publicexponent") {
			inModulus = false
			fields := strings.SplitN(line, ":", 2)
			if len(fields) != 2 {
				return nil, 0, fmt.Errorf("malformed publicExponent line: %q", line)
			}
			val := strings.TrimSpace(fields[1])
			if idx := strings.Index(val, "("); idx >= 0 {
				val = strings.TrimSpace(val[:idx])
			}
			e, err := strconv.Atoi(val)
			if err != nil {
				return nil, 0, fmt.Errorf("parsing publicExponent %q: %w", val, err)
			}
			exponent = e
			continue
		}
		if inModulus {
			stripped := strings.TrimSpace(line)
			if stripped != "" && isHexDump(stripped) {
				modulusHex.WriteString(strings.ReplaceAll(stripped, ":", ""))
			} else {
				inModulus = false
			}
		}
	}

	if modulusHex.Len() == 0 {
		return nil, 0, fmt.Errorf("no modulus found in key dump")
	}
	if exponent == 0 {
		return nil, 0, fmt.Errorf("no publicExponent found in key dump")
	}

	raw, err := hex.DecodeString(modulusHex.String())
	if err != nil {
		return nil, 0, fmt.Errorf("decoding modulus hex: %w", err)
	}
	// The dump prefixes the modulus with a zero byte to keep it positive.
	if len(raw) > 0 && raw[0] == 0 {
		raw = raw[1:]
	}

	return new(big.Int).SetBytes(raw), exponent, nil
}

func isHexDump(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdef:", c) {
			return false
		}
	}
	return true
}
