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

	"github.com/spf13/cobra"

	"github.com/injibr/inji-certify/internal/authflow"
	"github.com/injibr/inji-certify/internal/config"
	"github.com/injibr/inji-certify/internal/format"
	"github.com/injibr/inji-certify/internal/output"
	"github.com/injibr/inji-certify/internal/tokencache"
)

var loginNoCache bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in via the Gov.br SSO and cache the tokens",
	Long:  "Opens the browser for the SSO login (logging out of any existing session first), receives the redirect on the local callback port, exchanges the authorization code, and caches the tokens for later issue runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := cfg.ValidateLogin(); err != nil {
			return err
		}

		tokens, err := runLogin(cfg, !loginNoCache)
		if err != nil {
			return err
		}

		printTokens(tokens.IDToken, tokens.AccessToken)
		return nil
	},
}

func init() {
	loginCmd.Flags().BoolVar(&loginNoCache, "no-cache", false, "Do not persist the tokens")
	rootCmd.AddCommand(loginCmd)
}

// runLogin performs the browser login and optionally persists the result.
func runLogin(cfg *config.Config, cache bool) (*authflow.TokenSet, error) {
	flow := authflow.New(cfg)
	fmt.Printf("Waiting for the SSO redirect on %s ...\n", cfg.RedirectURI())

	tokens, err := flow.Login()
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if cache {
		c := &tokencache.Cache{Path: tokencache.DefaultPath()}
		if err := c.Save(tokens.Raw); err != nil {
			output.PrintWarning(fmt.Sprintf("could not cache tokens: %v", err))
		}
	}
	return tokens, nil
}

// printTokens decodes and prints the token claims. Opaque tokens are shown
// without claims rather than failing the run.
func printTokens(idToken, accessToken string) {
	idClaims, _ := format.DecodeClaims(idToken)
	accessClaims, _ := format.DecodeClaims(accessToken)
	output.PrintTokenClaims(idClaims, accessClaims, outputOptions())
}
