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

// Package credstore keeps issued credentials in a JSON file so they can be
// inspected after a run.
package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// StoredCredential is one issued credential with its receipt metadata.
type StoredCredential struct {
	ID         string         `json:"id"`
	DocType    string         `json:"docType"`
	IssuerID   string         `json:"issuerId,omitempty"`
	IssuedAt   time.Time      `json:"issuedAt"`
	Credential map[string]any `json:"credential"`
}

// Store appends credentials to a JSON file.
type Store struct {
	Path string
}

// DefaultPath is the store location under the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".inji-certify", "credentials.json")
	}
	return filepath.Join(home, ".inji-certify", "credentials.json")
}

// Add persists a newly issued credential and returns its store ID.
func (s *Store) Add(docType, issuerID string, credential map[string]any) (string, error) {
	all, err := s.List()
	if err != nil {
		return "", err
	}

	entry := StoredCredential{
		ID:         uuid.NewString(),
		DocType:    docType,
		IssuerID:   issuerID,
		IssuedAt:   time.Now().UTC(),
		Credential: credential,
	}
	all = append(all, entry)

	if err := s.write(all); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// List returns all stored credentials. A missing file is an empty store.
func (s *Store) List() ([]StoredCredential, error) {
	raw, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var all []StoredCredential
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *Store) write(all []StoredCredential) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, raw, 0600)
}
