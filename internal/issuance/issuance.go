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

// Package issuance implements the OID4VCI credential request against a
// Certify deployment, including the c_nonce challenge-and-retry round.
package issuance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/injibr/inji-certify/internal/proof"
)

// DefaultIdentifier is the issuer audience used when discovery fails.
const DefaultIdentifier = "https://vcdemo.crabdance.com/certify"

// Result is the terminal outcome of a credential request. Status 0 marks a
// transport-level failure; Body then carries a synthetic error document.
type Result struct {
	Status int
	Body   map[string]any
}

// OK reports whether the issuer answered with a 2xx status.
func (r Result) OK() bool {
	return r.Status >= 200 && r.Status <= 299
}

// Credential returns the issued credential document, or nil when the
// request did not succeed.
func (r Result) Credential() map[string]any {
	if !r.OK() {
		return nil
	}
	cred, _ := r.Body["credential"].(map[string]any)
	return cred
}

// CNonce extracts the c_nonce challenge from an error response.
func (r Result) CNonce() string {
	nonce, _ := r.Body["c_nonce"].(string)
	return nonce
}

// Client issues credential requests against a single Certify deployment.
type Client struct {
	// BaseURL is the Certify API root, e.g. https://host/v1/certify.
	BaseURL string
	// Timeout bounds each request round independently.
	Timeout time.Duration
	// Proof builds the proof-of-possession JWT for each round.
	Proof *proof.Builder

	// HTTPClient overrides the per-round client. Used in tests.
	HTTPClient *http.Client
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	// Fresh client per round so the timeout never leaks into other calls.
	return &http.Client{Timeout: c.Timeout}
}

// Request runs the full credential request for one credential type: an
// initial round without a nonce, and on a c_nonce challenge exactly one
// retry with a fresh proof bound to that nonce. Only a 400 response
// counts as a challenge; any other status, including a 5xx that happens
// to carry a c_nonce, is final. A second challenge is a final failure.
// Transport errors yield a Result with Status 0 and are never retried.
func (c *Client) Request(accessToken, audience, clientID, docType, issuerID string) (Result, error) {
	jwt, err := c.Proof.Build(audience, clientID, "")
	if err != nil {
		return Result{}, fmt.Errorf("building proof: %w", err)
	}

	result := c.post(accessToken, docType, issuerID, jwt)
	if result.Status != http.StatusBadRequest {
		return result, nil
	}
	nonce := result.CNonce()
	if nonce == "" {
		return result, nil
	}

	log.Printf("[VCI] issuer challenged with c_nonce, retrying %s with bound proof", docType)

	jwt, err = c.Proof.Build(audience, clientID, nonce)
	if err != nil {
		return Result{}, fmt.Errorf("building nonce-bound proof: %w", err)
	}
	return c.post(accessToken, docType, issuerID, jwt), nil
}

// post performs one credential request round. Any transport-level failure
// is folded into a synthetic Result rather than an error, so callers treat
// both cases uniformly.
func (c *Client) post(accessToken, docType, issuerID, proofJWT string) Result {
	body := map[string]any{
		"format":  "ldp_vc",
		"doctype": docType,
		"credential_definition": map[string]any{
			"@context": []string{"https://www.w3.org/2018/credentials/v1"},
			"type":     []string{"VerifiableCredential", docType},
		},
		"proof": map[string]any{
			"proof_type": "jwt",
			"jwt":        proofJWT,
		},
	}
	if issuerID != "" {
		body["issuerId"] = issuerID
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return transportFailure(fmt.Sprintf("encoding request body: %v", err))
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/issuance/credential", bytes.NewReader(payload))
	if err != nil {
		return transportFailure(fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client().Do(req)
	if err != nil {
		return transportFailure(err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(fmt.Sprintf("reading response: %v", err))
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Preserve non-JSON bodies verbatim for diagnosis.
		parsed = map[string]any{"raw": string(raw)}
	}

	return Result{Status: resp.StatusCode, Body: parsed}
}

func transportFailure(detail string) Result {
	return Result{
		Status: 0,
		Body: map[string]any{
			"error":             "timeout",
			"error_description": detail,
		},
	}
}
