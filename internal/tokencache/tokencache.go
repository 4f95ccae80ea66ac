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

// Package tokencache persists the SSO token response between runs so a
// fresh browser login is only needed once the access token expires.
package tokencache

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/injibr/inji-certify/internal/format"
)

// SafetyMargin is subtracted from the token expiry so a token about to
// expire mid-flow is treated as already expired.
const SafetyMargin = 60 * time.Second

var timeNow = time.Now

// Cache stores one token response as a JSON document on disk.
type Cache struct {
	Path string
}

// DefaultPath is the cache location under the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".inji-certify", "token_cache.json")
	}
	return filepath.Join(home, ".inji-certify", "token_cache.json")
}

// Load returns the cached token response, or nil when no usable cache
// exists. A missing file, unreadable JSON, or an expired access token all
// yield nil so the caller falls through to a fresh login.
func (c *Cache) Load() map[string]any {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return nil
	}

	var tokens map[string]any
	if err := json.Unmarshal(raw, &tokens); err != nil {
		log.Printf("[CACHE] discarding unreadable token cache: %v", err)
		return nil
	}

	accessToken, _ := tokens["access_token"].(string)
	if accessToken == "" || expired(accessToken) {
		return nil
	}
	return tokens
}

// Save writes the token response, creating the cache directory if needed.
// The file is user-readable only.
func (c *Cache) Save(tokens map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path, raw, 0600)
}

// expired checks the access token's exp claim against the clock with the
// safety margin applied. Tokens without a readable exp claim are treated
// as expired.
func expired(accessToken string) bool {
	claims, err := format.DecodeClaims(accessToken)
	if err != nil {
		return true
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return true
	}
	deadline := time.Unix(int64(exp), 0).Add(-SafetyMargin)
	return !timeNow().Before(deadline)
}
