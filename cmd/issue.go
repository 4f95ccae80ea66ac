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

package cmd

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/injibr/inji-certify/internal/config"
	"github.com/injibr/inji-certify/internal/credstore"
	"github.com/injibr/inji-certify/internal/issuance"
	"github.com/injibr/inji-certify/internal/output"
	"github.com/injibr/inji-certify/internal/proof"
	"github.com/injibr/inji-certify/internal/signer"
	"github.com/injibr/inji-certify/internal/tokencache"
)

var (
	issueCredentials []string
	issueTimeout     time.Duration
	issueNoCache     bool
	issueSkipLogin   bool
	issueSendIssuer  bool
	issueSave        bool
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Request credentials from the Certify deployment",
	Long: "Obtains an access token (cached, via ACCESS_TOKEN, or through a fresh SSO login), " +
		"then requests each selected credential type. Every request carries a proof-of-possession " +
		"JWT signed with a fresh RSA key; a c_nonce challenge from the issuer is answered exactly once.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if issueTimeout > 0 {
			cfg.Timeout = issueTimeout
		}

		selected, unknown := issuance.Resolve(issueCredentials)
		for _, key := range unknown {
			output.PrintWarning(fmt.Sprintf("unknown credential %q, known: %s", key, strings.Join(issuance.Keys(), ", ")))
		}
		if len(selected) == 0 {
			return fmt.Errorf("no known credentials selected")
		}

		accessToken, err := obtainAccessToken(cfg)
		if err != nil {
			return err
		}

		sig, err := signer.Select()
		if err != nil {
			return err
		}
		client := &issuance.Client{
			BaseURL: cfg.CertifyURL,
			Timeout: cfg.Timeout,
			Proof:   &proof.Builder{Signer: sig},
		}

		audience := cfg.CertifyIdentifier
		if audience == "" {
			// Scope discovery to the first selected credential's issuer;
			// multi-issuer deployments key their metadata on it.
			audience = client.ResolveIdentifier(selected[0].IssuerID)
		}
		log.Printf("[VCI] using issuer identifier %s", audience)

		var store *credstore.Store
		if issueSave {
			store = &credstore.Store{Path: credstore.DefaultPath()}
		}

		var succeeded, failed []string
		for _, spec := range selected {
			issuerID := ""
			if issueSendIssuer {
				issuerID = spec.IssuerID
			}

			result, err := client.Request(accessToken, audience, cfg.ClientID, spec.DocType, issuerID)
			if err != nil {
				return err
			}
			output.PrintIssuanceResult(spec.DocType, result.Status, result.Body, outputOptions())

			if !result.OK() {
				failed = append(failed, spec.DocType)
				continue
			}
			succeeded = append(succeeded, spec.DocType)

			if store != nil {
				if _, err := store.Add(spec.DocType, spec.IssuerID, result.Credential()); err != nil {
					output.PrintWarning(fmt.Sprintf("could not save %s: %v", spec.DocType, err))
				}
			}
		}

		output.PrintIssuanceSummary(succeeded, failed, outputOptions())
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d credential requests failed", len(failed), len(selected))
		}
		return nil
	},
}

func init() {
	// Only eca is requested by default; the other backends are not always
	// deployed alongside it.
	issueCmd.Flags().StringSliceVar(&issueCredentials, "credentials", []string{"eca"},
		fmt.Sprintf("Credential types to request (known: %s)", strings.Join(issuance.Keys(), ", ")))
	issueCmd.Flags().DurationVar(&issueTimeout, "timeout", 0, "Per-request timeout (default 30s)")
	issueCmd.Flags().BoolVar(&issueNoCache, "no-cache", false, "Ignore the token cache")
	issueCmd.Flags().BoolVar(&issueSkipLogin, "skip-login", false, "Use ACCESS_TOKEN instead of logging in")
	issueCmd.Flags().BoolVar(&issueSendIssuer, "send-issuer-id", false, "Include the per-deployment issuerId in requests")
	issueCmd.Flags().BoolVar(&issueSave, "save", false, "Store issued credentials locally")
	rootCmd.AddCommand(issueCmd)
}

// obtainAccessToken resolves the token in order of preference: explicit
// ACCESS_TOKEN, unexpired cache entry, fresh browser login.
func obtainAccessToken(cfg *config.Config) (string, error) {
	if cfg.AccessToken != "" {
		log.Printf("[SSO] using access token from environment")
		return cfg.AccessToken, nil
	}
	if issueSkipLogin {
		return "", fmt.Errorf("--skip-login requires ACCESS_TOKEN to be set")
	}

	if !issueNoCache {
		c := &tokencache.Cache{Path: tokencache.DefaultPath()}
		if tokens := c.Load(); tokens != nil {
			log.Printf("[SSO] using cached access token")
			accessToken, _ := tokens["access_token"].(string)
			return accessToken, nil
		}
	}

	if err := cfg.ValidateLogin(); err != nil {
		return "", err
	}
	tokens, err := runLogin(cfg, !issueNoCache)
	if err != nil {
		return "", err
	}
	printTokens(tokens.IDToken, tokens.AccessToken)
	return tokens.AccessToken, nil
}
