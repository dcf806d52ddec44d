// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"net"
	"net/url"
	"slices"
	"strings"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

var (
	oidExtSubjectKeyID   = asn1.ObjectIdentifier{2, 5, 29, 14}
	oidExtKeyUsage       = asn1.ObjectIdentifier{2, 5, 29, 15}
	oidExtSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}
	oidExtBasicConstr    = asn1.ObjectIdentifier{2, 5, 29, 19}
	oidExtAuthorityKeyID = asn1.ObjectIdentifier{2, 5, 29, 35}
	oidExtExtKeyUsage    = asn1.ObjectIdentifier{2, 5, 29, 37}
)

// marshalName encodes a subject as an RDNSequence with one attribute per RDN, in
// the order of [model.SubjectName.Attributes]. Country is a PrintableString,
// domain components and e-mail addresses are IA5Strings, the rest UTF8Strings.
func marshalName(n *model.SubjectName) ([]byte, error) {
	seq := pkix.RDNSequence{}
	for _, attr := range n.Attributes() {
		tag := asn1.TagUTF8String
		switch {
		case attr.IA5:
			tag = asn1.TagIA5String
		case attr.Type.Equal(model.OIDCountry):
			tag = asn1.TagPrintableString
		}
		seq = append(seq, pkix.RelativeDistinguishedNameSET{{
			Type:  attr.Type,
			Value: asn1.RawValue{Class: asn1.ClassUniversal, Tag: tag, Bytes: []byte(attr.Value)},
		}})
	}
	return asn1.Marshal(seq)
}

// extensionSet keeps extensions unique by OID in insertion order. A later add
// for the same OID replaces the earlier value in place.
type extensionSet struct {
	list []pkix.Extension
}

func (s *extensionSet) add(ext pkix.Extension) {
	for i := range s.list {
		if s.list[i].Id.Equal(ext.Id) {
			s.list[i] = ext
			return
		}
	}
	s.list = append(s.list, ext)
}

func (s *extensionSet) has(oid asn1.ObjectIdentifier) bool {
	return slices.ContainsFunc(s.list, func(e pkix.Extension) bool { return e.Id.Equal(oid) })
}

// configured adds the extensions described by e. Key identifiers are left to the
// caller, which knows the keys involved.
func (s *extensionSet) configured(e *model.Extensions) error {
	if e == nil {
		return nil
	}
	if bc := e.BasicConstraints; bc != nil {
		ext, err := basicConstraintsExtension(bc)
		if err != nil {
			return err
		}
		s.add(ext)
	}
	if ku := e.KeyUsage; ku != nil && len(ku.Usages) > 0 {
		ext, err := keyUsageExtension(ku)
		if err != nil {
			return err
		}
		s.add(ext)
	}
	if eku := e.ExtendedKeyUsage; eku != nil && len(eku.Usages)+len(eku.Oids) > 0 {
		ext, err := extKeyUsageExtension(eku)
		if err != nil {
			return err
		}
		s.add(ext)
	}
	if san := e.SubjectAlternativeName; san != nil && len(san.Names) > 0 {
		ext, err := subjectAltNameExtension(san)
		if err != nil {
			return err
		}
		s.add(ext)
	}
	for i, raw := range e.Raw {
		oid, err := model.ParseOID(raw.Oid)
		if err != nil {
			return InvalidArgument(indexed("extensions.raw", i)+".oid", "%w", err)
		}
		s.add(pkix.Extension{Id: oid, Critical: raw.Critical, Value: raw.Value})
	}
	return nil
}

// keyIdentifiers adds the subject and authority key identifiers. A configured
// value wins; otherwise subjectKeyID and authorityKeyID are used when non-empty
// and the set does not already carry the extension as a raw value.
func (s *extensionSet) keyIdentifiers(e *model.Extensions, subjectKeyID, authorityKeyID []byte) error {
	var ski, aki *model.KeyIdentifier
	if e != nil {
		ski, aki = e.SubjectKeyIdentifier, e.AuthorityKeyIdentifier
	}

	switch {
	case ski != nil && len(ski.Value) > 0:
		if err := s.subjectKeyID(ski.Value, ski.Critical); err != nil {
			return err
		}
	case len(subjectKeyID) > 0 && !s.has(oidExtSubjectKeyID):
		if err := s.subjectKeyID(subjectKeyID, ski != nil && ski.Critical); err != nil {
			return err
		}
	}

	switch {
	case aki != nil && len(aki.Value) > 0:
		return s.authorityKeyID(aki.Value, aki.Critical)
	case len(authorityKeyID) > 0 && !s.has(oidExtAuthorityKeyID):
		return s.authorityKeyID(authorityKeyID, aki != nil && aki.Critical)
	}
	return nil
}

// importMissing adds the extensions of exts whose OID the set does not carry yet.
func (s *extensionSet) importMissing(exts []pkix.Extension) {
	for _, ext := range exts {
		if !s.has(ext.Id) {
			s.list = append(s.list, ext)
		}
	}
}

func (s *extensionSet) subjectKeyID(id []byte, critical bool) error {
	value, err := asn1.Marshal(id)
	if err != nil {
		return err
	}
	s.add(pkix.Extension{Id: oidExtSubjectKeyID, Critical: critical, Value: value})
	return nil
}

type authorityKeyIdentifier struct {
	ID []byte `asn1:"optional,tag:0"`
}

func (s *extensionSet) authorityKeyID(id []byte, critical bool) error {
	value, err := asn1.Marshal(authorityKeyIdentifier{ID: id})
	if err != nil {
		return err
	}
	s.add(pkix.Extension{Id: oidExtAuthorityKeyID, Critical: critical, Value: value})
	return nil
}

type basicConstraints struct {
	IsCA       bool `asn1:"optional"`
	MaxPathLen int  `asn1:"optional,default:-1"`
}

func basicConstraintsExtension(bc *model.BasicConstraints) (pkix.Extension, error) {
	v := basicConstraints{IsCA: bc.CA, MaxPathLen: -1}
	if bc.PathLength != nil {
		v.MaxPathLen = *bc.PathLength
	}
	value, err := asn1.Marshal(v)
	return pkix.Extension{Id: oidExtBasicConstr, Critical: bc.Critical, Value: value}, err
}

// keyUsageExtension encodes the named usages as a DER BIT STRING, bit 0 being
// digitalSignature, with trailing zero bits removed.
func keyUsageExtension(ku *model.KeyUsage) (pkix.Extension, error) {
	var bits [2]byte
	highest := -1
	for _, name := range ku.Usages {
		bit, ok := model.KeyUsageBit(name)
		if !ok {
			return pkix.Extension{}, InvalidArgument("extensions.keyUsage.usages", "unknown key usage %q", name)
		}
		bits[bit/8] |= 0x80 >> (bit % 8)
		highest = max(highest, bit)
	}
	value, err := asn1.Marshal(asn1.BitString{Bytes: bits[:highest/8+1], BitLength: highest + 1})
	return pkix.Extension{Id: oidExtKeyUsage, Critical: ku.Critical, Value: value}, err
}

func extKeyUsageExtension(eku *model.ExtendedKeyUsage) (pkix.Extension, error) {
	var oids []asn1.ObjectIdentifier
	for _, name := range eku.Usages {
		oid, ok := model.ExtKeyUsageOID(name)
		if !ok {
			return pkix.Extension{}, InvalidArgument("extensions.extendedKeyUsage.usages", "unknown extended key usage %q", name)
		}
		oids = append(oids, oid)
	}
	for _, s := range eku.Oids {
		oid, err := model.ParseOID(s)
		if err != nil {
			return pkix.Extension{}, InvalidArgument("extensions.extendedKeyUsage.oids", "%w", err)
		}
		oids = append(oids, oid)
	}
	value, err := asn1.Marshal(oids)
	return pkix.Extension{Id: oidExtExtKeyUsage, Critical: eku.Critical, Value: value}, err
}

// GeneralName tags used in subject alternative names.
const (
	tagRFC822Name = 1
	tagDNSName    = 2
	tagURI        = 6
	tagIPAddress  = 7
)

func subjectAltNameExtension(san *model.SubjectAlternativeName) (pkix.Extension, error) {
	var names []asn1.RawValue
	for i, n := range san.Names {
		field := indexed("extensions.subjectAlternativeName.names", i)
		raw := asn1.RawValue{Class: asn1.ClassContextSpecific}
		switch strings.ToLower(n.Type) {
		case model.NameDNS:
			raw.Tag, raw.Bytes = tagDNSName, []byte(n.Value)
		case model.NameEmail:
			raw.Tag, raw.Bytes = tagRFC822Name, []byte(n.Value)
		case model.NameURI:
			if _, err := url.Parse(n.Value); err != nil {
				return pkix.Extension{}, InvalidArgument(field, "%w", err)
			}
			raw.Tag, raw.Bytes = tagURI, []byte(n.Value)
		case model.NameIP:
			ip := net.ParseIP(n.Value)
			if ip == nil {
				return pkix.Extension{}, InvalidArgument(field, "invalid IP address %q", n.Value)
			}
			if v4 := ip.To4(); v4 != nil {
				ip = v4
			}
			raw.Tag, raw.Bytes = tagIPAddress, ip
		default:
			return pkix.Extension{}, InvalidArgument(field+".type", "unsupported name type %q", n.Type)
		}
		names = append(names, raw)
	}
	value, err := asn1.Marshal(names)
	return pkix.Extension{Id: oidExtSubjectAltName, Critical: san.Critical, Value: value}, err
}
