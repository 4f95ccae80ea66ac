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

import "sort"

// CredentialSpec pairs a credential document type with the issuer it is
// published under.
type CredentialSpec struct {
	Key      string
	DocType  string
	IssuerID string
}

// Catalog lists the Brazilian agricultural credential types known to the
// demo deployments, keyed by their short CLI names.
var Catalog = map[string]CredentialSpec{
	"eca":         {Key: "eca", DocType: "ECACredential", IssuerID: "MGI"},
	"car-receipt": {Key: "car-receipt", DocType: "CARReceipt", IssuerID: "MGI"},
	"car-doc":     {Key: "car-doc", DocType: "CARDocument", IssuerID: "MGI"},
	"caf":         {Key: "caf", DocType: "CAFCredential", IssuerID: "MDA"},
	"ccir":        {Key: "ccir", DocType: "CCIRCredential", IssuerID: "INCRA"},
}

// Keys returns the catalog's short names in stable order.
func Keys() []string {
	keys := make([]string, 0, len(Catalog))
	for k := range Catalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve maps the requested short names to their specs, preserving the
// requested order. Unknown names are collected rather than failing the
// whole run.
func Resolve(requested []string) (selected []CredentialSpec, unknown []string) {
	for _, key := range requested {
		spec, ok := Catalog[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		selected = append(selected, spec)
	}
	return selected, unknown
}
