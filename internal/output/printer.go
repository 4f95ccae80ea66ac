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

package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Options controls output rendering.
type Options struct {
	// JSON emits machine-readable output instead of the terminal format.
	JSON bool
	// Verbose includes additional detail such as full claim sets.
	Verbose bool
}

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgYellow)
	valueColor   = color.New(color.FgWhite)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)

	// timeNow is the function used to get the current time. Override in tests.
	timeNow = time.Now
)

// PrintTokenClaims prints the decoded claims of the SSO tokens.
func PrintTokenClaims(idClaims, accessClaims map[string]any, opts Options) {
	if opts.JSON {
		PrintJSON(map[string]any{
			"idToken":     idClaims,
			"accessToken": accessClaims,
		})
		return
	}

	headerColor.Println("SSO Tokens")
	headerColor.Println(strings.Repeat("─", 50))

	if len(idClaims) > 0 {
		printSection("ID Token Claims")
		printMap(idClaims, 1)
	}

	if len(accessClaims) > 0 {
		printSection("Access Token Claims")
		if opts.Verbose {
			printMap(accessClaims, 1)
		} else {
			printTokenSummary(accessClaims)
		}
	}

	fmt.Println()
}

// printTokenSummary shows the claims that matter for diagnosis; the full
// set is behind -v.
func printTokenSummary(claims map[string]any) {
	for _, k := range []string{"iss", "sub", "aud", "scope", "azp"} {
		if v, ok := claims[k]; ok {
			printKV(k, formatValue(v), 1)
		}
	}
	if exp, ok := claims["exp"].(float64); ok {
		t := time.Unix(int64(exp), 0)
		printKV("exp", t.Format(time.RFC3339)+dimColor.Sprintf(" (%s)", relativeTime(t)), 1)
	}
	dimColor.Println("  (use -v for all claims)")
}

// PrintIssuanceResult prints the outcome of one credential request.
func PrintIssuanceResult(docType string, status int, body map[string]any, opts Options) {
	if opts.JSON {
		PrintJSON(map[string]any{
			"docType": docType,
			"status":  status,
			"body":    body,
		})
		return
	}

	printSection(fmt.Sprintf("Credential: %s", docType))
	switch {
	case status >= 200 && status <= 299:
		successColor.Printf("  ✓ Issued (HTTP %d)\n", status)
		if cred, ok := body["credential"].(map[string]any); ok {
			printCredential(cred, opts)
		}
	case status == 0:
		errorColor.Println("  ✗ Request failed before reaching the issuer")
		printMap(body, 1)
	default:
		errorColor.Printf("  ✗ Issuer rejected the request (HTTP %d)\n", status)
		printMap(body, 1)
	}
}

func printCredential(cred map[string]any, opts Options) {
	if subject, ok := cred["credentialSubject"].(map[string]any); ok {
		labelColor.Println("  Subject:")
		printMap(subject, 2)
	}
	if opts.Verbose {
		labelColor.Println("  Full credential:")
		printMap(cred, 2)
	}
}

// PrintIssuanceSummary prints the per-credential tally after a batch run.
func PrintIssuanceSummary(succeeded, failed []string, opts Options) {
	if opts.JSON {
		PrintJSON(map[string]any{
			"succeeded": succeeded,
			"failed":    failed,
		})
		return
	}

	printSection("Summary")
	for _, docType := range succeeded {
		successColor.Printf("  ✓ %s\n", docType)
	}
	for _, docType := range failed {
		errorColor.Printf("  ✗ %s\n", docType)
	}
	fmt.Println()
}

// PrintWarning prints a non-fatal warning.
func PrintWarning(msg string) {
	warnColor.Printf("  ⚠ %s\n", msg)
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor.Sprint("Error:"), msg)
}

// relativeTime returns a human-readable relative duration string for t.
// Future times return "in X units", past times return "X units ago".
func relativeTime(t time.Time) string {
	now := timeNow()
	d := t.Sub(now)
	if d < 0 {
		d = -d
		return formatDuration(d) + " ago"
	}
	return "in " + formatDuration(d)
}

func formatDuration(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d >= 60*day:
		months := int(d / (30 * day))
		if months == 1 {
			return "1 month"
		}
		return fmt.Sprintf("%d months", months)
	case d >= 2*day:
		days := int(d / day)
		return fmt.Sprintf("%d days", days)
	case d >= day:
		return "1 day"
	case d >= 2*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	case d >= time.Hour:
		return "1 hour"
	case d >= 2*time.Minute:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	default:
		return "1 minute"
	}
}

func printSection(title string) {
	fmt.Println()
	headerColor.Printf("┌ %s\n", title)
}

func printKV(key, value string, indent int) {
	prefix := strings.Repeat("  ", indent)
	labelColor.Printf("%s%s: ", prefix, key)
	valueColor.Println(value)
}

func printMap(m map[string]any, indent int) {
	keys := sortedKeys(m)
	prefix := strings.Repeat("  ", indent)
	for _, k := range keys {
		labelColor.Printf("%s%s: ", prefix, k)
		fmt.Println(formatValue(m[k]))
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case nil:
		return "null"
	case []byte:
		return fmt.Sprintf("(%d bytes)", len(val))
	case map[string]any:
		b, _ := json.MarshalIndent(val, "    ", "  ")
		return string(b)
	case []any:
		if isSimpleArray(val) {
			b, _ := json.Marshal(val)
			return string(b)
		}
		b, _ := json.MarshalIndent(val, "    ", "  ")
		return string(b)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

func isSimpleArray(arr []any) bool {
	for _, v := range arr {
		switch v.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
