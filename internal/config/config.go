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

// Package config holds the runtime configuration for the issuance flow,
// loaded from the environment (with .env support).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultSSOURL is the staging Gov.br single sign-on base URL.
	DefaultSSOURL = "https://sso.staging.acesso.gov.br"
	// DefaultCertifyURL is a local Certify instance.
	DefaultCertifyURL = "http://localhost:8090/v1/certify"
	// DefaultRedirectPort is the local OAuth2 callback port registered with
	// the authorization server.
	DefaultRedirectPort = 3004
	// RedirectPath is the registered callback path.
	RedirectPath = "/redirect"
	// DefaultTimeout bounds each credential request round.
	DefaultTimeout = 30 * time.Second
)

// Config is the explicit configuration passed into the protocol components.
type Config struct {
	SSOBaseURL   string
	ClientID     string
	ClientSecret string
	RedirectPort int

	CertifyURL string
	// CertifyIdentifier overrides issuer discovery when set.
	CertifyIdentifier string
	// AccessToken is a pre-existing token used with --skip-login.
	AccessToken string

	Timeout time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		SSOBaseURL:        envOr("SSO_URL", DefaultSSOURL),
		ClientID:          os.Getenv("SSO_CLIENT_ID"),
		ClientSecret:      os.Getenv("SSO_CLIENT_SECRET"),
		RedirectPort:      DefaultRedirectPort,
		CertifyURL:        envOr("CERTIFY_URL", DefaultCertifyURL),
		CertifyIdentifier: os.Getenv("CERTIFY_IDENTIFIER"),
		AccessToken:       os.Getenv("ACCESS_TOKEN"),
		Timeout:           DefaultTimeout,
	}

	if v := os.Getenv("REDIRECT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.RedirectPort = port
		}
	}

	return cfg
}

// RedirectURI returns the local callback address. It must match exactly
// what is registered for the client with the authorization server.
func (c *Config) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", c.RedirectPort, RedirectPath)
}

// ValidateLogin reports a configuration error when the client credentials
// required for the SSO flow are missing. Called before any network I/O.
func (c *Config) ValidateLogin() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("SSO_CLIENT_ID and SSO_CLIENT_SECRET must be set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
