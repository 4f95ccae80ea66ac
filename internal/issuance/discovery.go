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

package issuance

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
)

// ResolveIdentifier determines the issuer identifier used as the proof
// audience. It queries the deployment's credential issuer metadata,
// scoped to issuerID when one is given (multi-issuer deployments publish
// one identifier per issuer), and falls back to DefaultIdentifier when
// the metadata is unreachable or malformed, since a wrong audience only
// fails later at proof validation.
func (c *Client) ResolveIdentifier(issuerID string) string {
	id, err := c.fetchIssuerIdentifier(issuerID)
	if err != nil {
		log.Printf("[VCI] issuer metadata unavailable (%v), falling back to %s", err, DefaultIdentifier)
		return DefaultIdentifier
	}
	return id
}

func (c *Client) fetchIssuerIdentifier(issuerID string) (string, error) {
	metadataURL := c.BaseURL + "/issuance/.well-known/openid-credential-issuer"
	if issuerID != "" {
		metadataURL += "?issuer_id=" + url.QueryEscape(issuerID)
	}
	resp, err := c.client().Get(metadataURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata endpoint returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var metadata struct {
		CredentialIssuer string `json:"credential_issuer"`
	}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return "", fmt.Errorf("parsing metadata: %w", err)
	}
	if metadata.CredentialIssuer == "" {
		return "", fmt.Errorf("metadata has no credential_issuer")
	}
	return metadata.CredentialIssuer, nil
}
