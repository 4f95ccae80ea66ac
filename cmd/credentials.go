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

	"github.com/injibr/inji-certify/internal/credstore"
	"github.com/injibr/inji-certify/internal/output"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "List credentials issued with --save",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := &credstore.Store{Path: credstore.DefaultPath()}
		all, err := store.List()
		if err != nil {
			return fmt.Errorf("reading credential store: %w", err)
		}

		if jsonOutput {
			output.PrintJSON(all)
			return nil
		}

		if len(all) == 0 {
			fmt.Println("No stored credentials.")
			return nil
		}
		for _, c := range all {
			fmt.Printf("%s  %-14s  %-4s  %s\n", c.IssuedAt.Format("2006-01-02 15:04"), c.DocType, c.IssuerID, c.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
}
