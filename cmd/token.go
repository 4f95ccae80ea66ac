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

	"github.com/injibr/inji-certify/internal/config"
	"github.com/injibr/inji-certify/internal/tokencache"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the current access token claims",
	Long:  "Decodes and prints the claims of the cached access token, or of ACCESS_TOKEN when set. Fails when no unexpired token is available.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		if cfg.AccessToken != "" {
			printTokens("", cfg.AccessToken)
			return nil
		}

		c := &tokencache.Cache{Path: tokencache.DefaultPath()}
		tokens := c.Load()
		if tokens == nil {
			return fmt.Errorf("no cached token available, run 'inji-certify login' first")
		}

		accessToken, _ := tokens["access_token"].(string)
		idToken, _ := tokens["id_token"].(string)
		printTokens(idToken, accessToken)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
