// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

// Extensions is the set of requested X.509 extensions. A nil field means the
// extension is not included.
type Extensions struct {
	BasicConstraints       *BasicConstraints       `json:"basicConstraints,omitempty"`
	KeyUsage               *KeyUsage               `json:"keyUsage,omitempty"`
	ExtendedKeyUsage       *ExtendedKeyUsage       `json:"extendedKeyUsage,omitempty"`
	SubjectAlternativeName *SubjectAlternativeName `json:"subjectAlternativeName,omitempty"`
	SubjectKeyIdentifier   *KeyIdentifier          `json:"subjectKeyIdentifier,omitempty"`
	AuthorityKeyIdentifier *KeyIdentifier          `json:"authorityKeyIdentifier,omitempty"`
	Raw                    []RawExtension          `json:"raw,omitempty"`
}

// BasicConstraints is the RFC 5280 basic constraints extension.
type BasicConstraints struct {
	Critical   bool `json:"critical,omitempty"`
	CA         bool `json:"ca,omitempty"`
	PathLength *int `json:"pathLength,omitempty"`
}

// KeyUsage lists key usage names such as "digitalSignature" or "keyCertSign".
type KeyUsage struct {
	Critical bool     `json:"critical,omitempty"`
	Usages   []string `json:"usages,omitempty"`
}

// ExtendedKeyUsage lists extended key usage names and additional dotted OIDs.
type ExtendedKeyUsage struct {
	Critical bool     `json:"critical,omitempty"`
	Usages   []string `json:"usages,omitempty"`
	Oids     []string `json:"oids,omitempty"`
}

// SubjectAlternativeName lists typed general names.
type SubjectAlternativeName struct {
	Critical bool          `json:"critical,omitempty"`
	Names    []GeneralName `json:"names,omitempty"`
}

// GeneralName is one alternative name. Type is one of dns, email, ip or uri.
type GeneralName struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// KeyIdentifier is a subject or authority key identifier. An empty Value lets
// the builder compute it from the relevant public key.
type KeyIdentifier struct {
	Critical bool   `json:"critical,omitempty"`
	Value    []byte `json:"value,omitempty"`
}

// RawExtension is an extension given as a dotted OID and its DER encoded value.
type RawExtension struct {
	Oid      string `json:"oid"`
	Critical bool   `json:"critical,omitempty"`
	Value    []byte `json:"value"`
}

// Clone returns a deep copy of the extension set.
func (e *Extensions) Clone() *Extensions {
	if e == nil {
		return nil
	}
	out := &Extensions{}
	if e.BasicConstraints != nil {
		bc := *e.BasicConstraints
		if bc.PathLength != nil {
			n := *bc.PathLength
			bc.PathLength = &n
		}
		out.BasicConstraints = &bc
	}
	if e.KeyUsage != nil {
		ku := *e.KeyUsage
		ku.Usages = cloneStrings(ku.Usages)
		out.KeyUsage = &ku
	}
	if e.ExtendedKeyUsage != nil {
		eku := *e.ExtendedKeyUsage
		eku.Usages = cloneStrings(eku.Usages)
		eku.Oids = cloneStrings(eku.Oids)
		out.ExtendedKeyUsage = &eku
	}
	if e.SubjectAlternativeName != nil {
		san := *e.SubjectAlternativeName
		if san.Names != nil {
			san.Names = append([]GeneralName(nil), san.Names...)
		}
		out.SubjectAlternativeName = &san
	}
	out.SubjectKeyIdentifier = e.SubjectKeyIdentifier.clone()
	out.AuthorityKeyIdentifier = e.AuthorityKeyIdentifier.clone()
	if e.Raw != nil {
		out.Raw = make([]RawExtension, len(e.Raw))
		for i, r := range e.Raw {
			r.Value = cloneBytes(r.Value)
			out.Raw[i] = r
		}
	}
	return out
}

func (k *KeyIdentifier) clone() *KeyIdentifier {
	if k == nil {
		return nil
	}
	return &KeyIdentifier{Critical: k.Critical, Value: cloneBytes(k.Value)}
}
