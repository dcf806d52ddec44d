// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import (
	"encoding/asn1"
	"sort"
)

// SubjectName is a structured distinguished name. Fields are declared in the
// order their attributes appear in the encoded name.
type SubjectName struct {
	Country             string   `json:"country,omitempty"`
	Organization        string   `json:"organization,omitempty"`
	OrganizationalUnit  string   `json:"organizationalUnit,omitempty"`
	State               string   `json:"state,omitempty"`
	Locality            string   `json:"locality,omitempty"`
	CommonName          string   `json:"commonName,omitempty"`
	DomainComponents    []string `json:"domainComponents,omitempty"`
	Title               string   `json:"title,omitempty"`
	Surname             string   `json:"surname,omitempty"`
	GivenName           string   `json:"givenName,omitempty"`
	Initials            string   `json:"initials,omitempty"`
	Pseudonym           string   `json:"pseudonym,omitempty"`
	GenerationQualifier string   `json:"generationQualifier,omitempty"`
	Email               string   `json:"email,omitempty"`

	// Oids holds additional attributes keyed by dotted OID. They follow the named
	// attributes, ordered by key.
	Oids map[string]string `json:"oids,omitempty"`

	// Empty requests an empty distinguished name. It is how an intentionally empty
	// name is told apart from an absent one.
	Empty bool `json:"empty,omitempty"`
}

// Attribute is one relative distinguished name of a subject.
type Attribute struct {
	Type  asn1.ObjectIdentifier
	Value string
	// IA5 marks attributes encoded as IA5String instead of UTF8String.
	IA5 bool
}

// Attribute types of the named subject fields.
var (
	OIDCountry             = asn1.ObjectIdentifier{2, 5, 4, 6}
	OIDOrganization        = asn1.ObjectIdentifier{2, 5, 4, 10}
	OIDOrganizationalUnit  = asn1.ObjectIdentifier{2, 5, 4, 11}
	OIDState               = asn1.ObjectIdentifier{2, 5, 4, 8}
	OIDLocality            = asn1.ObjectIdentifier{2, 5, 4, 7}
	OIDCommonName          = asn1.ObjectIdentifier{2, 5, 4, 3}
	OIDDomainComponent     = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}
	OIDTitle               = asn1.ObjectIdentifier{2, 5, 4, 12}
	OIDSurname             = asn1.ObjectIdentifier{2, 5, 4, 4}
	OIDGivenName           = asn1.ObjectIdentifier{2, 5, 4, 42}
	OIDInitials            = asn1.ObjectIdentifier{2, 5, 4, 43}
	OIDPseudonym           = asn1.ObjectIdentifier{2, 5, 4, 65}
	OIDGenerationQualifier = asn1.ObjectIdentifier{2, 5, 4, 44}
	OIDEmailAddress        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
)

// IsZero reports whether no attribute is set.
func (n *SubjectName) IsZero() bool {
	return n == nil || len(n.Attributes()) == 0
}

// Attributes lists the set attributes in encoding order. Oids entries whose key
// is not a valid OID are skipped; [Config.Validate] reports them.
func (n *SubjectName) Attributes() []Attribute {
	if n == nil {
		return nil
	}

	var out []Attribute
	add := func(oid asn1.ObjectIdentifier, v string) {
		if v != "" {
			out = append(out, Attribute{Type: oid, Value: v})
		}
	}

	add(OIDCountry, n.Country)
	add(OIDOrganization, n.Organization)
	add(OIDOrganizationalUnit, n.OrganizationalUnit)
	add(OIDState, n.State)
	add(OIDLocality, n.Locality)
	add(OIDCommonName, n.CommonName)
	for _, dc := range n.DomainComponents {
		if dc != "" {
			out = append(out, Attribute{Type: OIDDomainComponent, Value: dc, IA5: true})
		}
	}
	add(OIDTitle, n.Title)
	add(OIDSurname, n.Surname)
	add(OIDGivenName, n.GivenName)
	add(OIDInitials, n.Initials)
	add(OIDPseudonym, n.Pseudonym)
	add(OIDGenerationQualifier, n.GenerationQualifier)
	if n.Email != "" {
		out = append(out, Attribute{Type: OIDEmailAddress, Value: n.Email, IA5: true})
	}

	keys := make([]string, 0, len(n.Oids))
	for k := range n.Oids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		oid, err := ParseOID(k)
		if err != nil {
			continue
		}
		add(oid, n.Oids[k])
	}
	return out
}

// Clone returns a deep copy of the name.
func (n *SubjectName) Clone() *SubjectName {
	if n == nil {
		return nil
	}
	out := *n
	out.DomainComponents = cloneStrings(n.DomainComponents)
	if n.Oids != nil {
		out.Oids = make(map[string]string, len(n.Oids))
		for k, v := range n.Oids {
			out.Oids[k] = v
		}
	}
	return &out
}
