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

// Package authflow runs the OAuth2 Authorization Code + PKCE exchange with
// the Gov.br SSO: authorize URL construction, the one-shot local redirect
// listener, and the code-for-tokens exchange.
package authflow

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/browser"

	"github.com/injibr/inji-certify/internal/config"
	"github.com/injibr/inji-certify/internal/format"
	"github.com/injibr/inji-certify/internal/pkce"
)

// Scope is the fixed scope requested from the SSO.
const Scope = "openid email profile"

// State is the flow's position in its lifecycle.
type State int

const (
	StateInit State = iota
	StateAwaitingRedirect
	StateCodeReceived
	StateTokensExchanged
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateAwaitingRedirect:
		return "AWAITING_REDIRECT"
	case StateCodeReceived:
		return "CODE_RECEIVED"
	case StateTokensExchanged:
		return "TOKENS_EXCHANGED"
	case StateAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNoCode indicates the redirect arrived without a code parameter.
var ErrNoCode = errors.New("no authorization code received")

// ErrStateMismatch indicates the redirect carried a state value that does
// not match the one sent in the authorize request.
var ErrStateMismatch = errors.New("state parameter mismatch")

// httpClient is used for the token exchange. Override in tests.
var httpClient = http.DefaultClient

// openURL opens the user's browser. Best-effort; override in tests.
var openURL = browser.OpenURL

// logoutDelay gives the browser time to process the logout before the
// authorize page is opened. Override in tests.
var logoutDelay = 2 * time.Second

// TokenSet is the result of a successful code exchange. Raw holds the
// complete token endpoint response for caching.
type TokenSet struct {
	AccessToken string
	IDToken     string
	Raw         map[string]any
}

// Flow drives a single authorization code exchange.
type Flow struct {
	cfg *config.Config

	state         State
	pkce          pkce.Pair
	nonce         string
	expectedState string
}

// New creates a flow in the INIT state.
func New(cfg *config.Config) *Flow {
	return &Flow{cfg: cfg}
}

// State returns the flow's current lifecycle state.
func (f *Flow) State() State {
	return f.state
}

// BuildAuthorizeRequest composes the authorization endpoint URL with fresh
// PKCE, nonce, and state values. The returned URL is opened in the user's
// browser; the state value is kept for comparison on the redirect.
func (f *Flow) BuildAuthorizeRequest() (string, error) {
	pair, err := pkce.Generate()
	if err != nil {
		return "", err
	}
	f.pkce = pair
	f.nonce = randomHex(16)
	f.expectedState = randomHex(16)

	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {f.cfg.ClientID},
		"scope":                 {Scope},
		"redirect_uri":          {f.cfg.RedirectURI()},
		"nonce":                 {f.nonce},
		"state":                 {f.expectedState},
		"code_challenge":        {pair.Challenge},
		"code_challenge_method": {pkce.Method},
	}

	return f.cfg.SSOBaseURL + "/authorize?" + params.Encode(), nil
}

// Login runs the full flow: authorize URL, browser, one-shot redirect
// listener, code exchange. It blocks until the redirect arrives or the
// process is interrupted.
func (f *Flow) Login() (*TokenSet, error) {
	authorizeURL, err := f.BuildAuthorizeRequest()
	if err != nil {
		return nil, err
	}

	// Bind the port before opening the browser so the redirect cannot race
	// the listener.
	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", f.cfg.RedirectPort))
	if err != nil {
		return nil, fmt.Errorf("binding redirect port %d: %w", f.cfg.RedirectPort, err)
	}
	f.state = StateAwaitingRedirect

	f.openBrowser(authorizeURL)

	code, err := f.waitForCode(ln)
	if err != nil {
		f.state = StateAborted
		return nil, err
	}
	f.state = StateCodeReceived

	tokens, err := f.ExchangeCode(code)
	if err != nil {
		return nil, err
	}
	f.state = StateTokensExchanged
	return tokens, nil
}

// openBrowser opens the logout endpoint first to clear any existing SSO
// session, waits briefly, then opens the authorize URL. Failures are logged
// and not fatal; the user can follow the printed URL by hand.
func (f *Flow) openBrowser(authorizeURL string) {
	logoutURL := f.cfg.SSOBaseURL + "/logout?post_logout_redirect_uri=" + url.QueryEscape(authorizeURL)
	if err := openURL(logoutURL); err != nil {
		log.Printf("[SSO] opening browser for logout: %v", err)
	}
	time.Sleep(logoutDelay)
	if err := openURL(authorizeURL); err != nil {
		log.Printf("[SSO] opening browser for login: %v", err)
	}
}

type callbackResult struct {
	code string
	err  error
}

// waitForCode serves exactly one request on the redirect listener, extracts
// the code parameter, and shuts the listener down.
func (f *Flow) waitForCode(ln net.Listener) (string, error) {
	done := make(chan callbackResult, 1)

	deliver := func(r callbackResult) {
		select {
		case done <- r:
		default:
		}
	}

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code parameter found", http.StatusBadRequest)
			deliver(callbackResult{err: ErrNoCode})
			return
		}
		if got := q.Get("state"); got != f.expectedState {
			http.Error(w, "State parameter mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: ErrStateMismatch})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h1>Login successful!</h1>"+
			"<p>You can close this tab and return to the terminal.</p>"+
			"</body></html>")
		deliver(callbackResult{code: code})
	})}

	go srv.Serve(ln)
	result := <-done
	srv.Close()

	return result.code, result.err
}

// ExchangeCode exchanges the authorization code for tokens at the token
// endpoint, authenticated via HTTP Basic. A non-2xx response is fatal and
// surfaces the upstream status and body verbatim.
func (f *Flow) ExchangeCode(code string) (*TokenSet, error) {
	params := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {f.cfg.RedirectURI()},
		"code_verifier": {f.pkce.Verifier},
	}

	req, err := http.NewRequest("POST", f.cfg.SSOBaseURL+"/token?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	credentials := format.EncodeBase64Std([]byte(f.cfg.ClientID + ":" + f.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	accessToken, _ := raw["access_token"].(string)
	if accessToken == "" {
		return nil, fmt.Errorf("token response contains no access_token")
	}
	idToken, _ := raw["id_token"].(string)

	return &TokenSet{
		AccessToken: accessToken,
		IDToken:     idToken,
		Raw:         raw,
	}, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure is unrecoverable for a security token.
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}
