// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

const describeTimeLayout = time.RFC3339

var keyUsageNames = []struct {
	bit  x509.KeyUsage
	name string
}{
	{x509.KeyUsageDigitalSignature, "digitalSignature"},
	{x509.KeyUsageContentCommitment, "nonRepudiation"},
	{x509.KeyUsageKeyEncipherment, "keyEncipherment"},
	{x509.KeyUsageDataEncipherment, "dataEncipherment"},
	{x509.KeyUsageKeyAgreement, "keyAgreement"},
	{x509.KeyUsageCertSign, "keyCertSign"},
	{x509.KeyUsageCRLSign, "cRLSign"},
	{x509.KeyUsageEncipherOnly, "encipherOnly"},
	{x509.KeyUsageDecipherOnly, "decipherOnly"},
}

var extKeyUsageNames = map[x509.ExtKeyUsage]string{
	x509.ExtKeyUsageAny:             "any",
	x509.ExtKeyUsageServerAuth:      "serverAuth",
	x509.ExtKeyUsageClientAuth:      "clientAuth",
	x509.ExtKeyUsageCodeSigning:     "codeSigning",
	x509.ExtKeyUsageEmailProtection: "emailProtection",
	x509.ExtKeyUsageTimeStamping:    "timeStamping",
	x509.ExtKeyUsageOCSPSigning:     "ocspSigning",
}

// Describe renders a human readable markdown dump of an artifact.
//
// Certificates, requests, keys and bundles are rendered as a two column table of
// fields; revocation lists add a second table listing their entries.
//
// Returns:
//   - string: Markdown text ending with a newline
func Describe(a *Artifact) string {
	var sb strings.Builder

	switch a.Kind {
	case KindCertificate, KindPKCS7:
		for i, cert := range a.Certificates {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "## %s %d of %d\n\n", a.Kind, i+1, len(a.Certificates))
			renderFields(&sb, certificateFields(cert))
		}
	case KindRequest:
		fmt.Fprintf(&sb, "## %s\n\n", a.Kind)
		renderFields(&sb, requestFields(a.Request))
	case KindCRL:
		fmt.Fprintf(&sb, "## %s\n\n", a.Kind)
		renderFields(&sb, crlFields(a.CRL))
		if len(a.CRL.RevokedCertificateEntries) > 0 {
			sb.WriteString("\n")
			renderEntries(&sb, a.CRL)
		}
	case KindPrivateKey:
		fmt.Fprintf(&sb, "## %s\n\n", a.Kind)
		renderFields(&sb, keyFields(a.PrivateKey.Public()))
	case KindPublicKey:
		fmt.Fprintf(&sb, "## %s\n\n", a.Kind)
		renderFields(&sb, keyFields(a.PublicKey))
	default:
		sb.WriteString("unrecognized artifact\n")
	}

	return sb.String()
}

func renderFields(sb *strings.Builder, rows [][]string) {
	table := tablewriter.NewTable(sb,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"Field", "Value"})
	table.Bulk(rows)
	table.Render()
}

func renderEntries(sb *strings.Builder, crl *x509.RevocationList) {
	table := tablewriter.NewTable(sb,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"#", "Serial", "Revoked", "Reason"})

	var rows [][]string
	for i, e := range crl.RevokedCertificateEntries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			formatSerial(e.SerialNumber.Bytes()),
			e.RevocationTime.UTC().Format(describeTimeLayout),
			ReasonName(e.ReasonCode),
		})
	}
	table.Bulk(rows)
	table.Render()
}

func certificateFields(cert *x509.Certificate) [][]string {
	rows := [][]string{
		{"Subject", cert.Subject.String()},
		{"Issuer", cert.Issuer.String()},
		{"Serial", formatSerial(cert.SerialNumber.Bytes())},
		{"Not Before", cert.NotBefore.UTC().Format(describeTimeLayout)},
		{"Not After", cert.NotAfter.UTC().Format(describeTimeLayout)},
		{"Public Key", KeyDescription(cert.PublicKey)},
		{"Signature Algorithm", cert.SignatureAlgorithm.String()},
	}
	if cert.BasicConstraintsValid {
		bc := fmt.Sprintf("CA=%t", cert.IsCA)
		if cert.IsCA && (cert.MaxPathLen > 0 || cert.MaxPathLenZero) {
			bc += fmt.Sprintf(", pathLen=%d", cert.MaxPathLen)
		}
		rows = append(rows, []string{"Basic Constraints", bc})
	}
	if ku := keyUsageString(cert.KeyUsage); ku != "" {
		rows = append(rows, []string{"Key Usage", ku})
	}
	if eku := extKeyUsageString(cert.ExtKeyUsage, cert.UnknownExtKeyUsage); eku != "" {
		rows = append(rows, []string{"Extended Key Usage", eku})
	}
	rows = append(rows, sanRows(cert.DNSNames, cert.EmailAddresses, ipStrings(cert.IPAddresses), uriStrings(cert.URIs))...)
	if len(cert.SubjectKeyId) > 0 {
		rows = append(rows, []string{"Subject Key ID", hex.EncodeToString(cert.SubjectKeyId)})
	}
	if len(cert.AuthorityKeyId) > 0 {
		rows = append(rows, []string{"Authority Key ID", hex.EncodeToString(cert.AuthorityKeyId)})
	}
	return rows
}

func requestFields(csr *x509.CertificateRequest) [][]string {
	rows := [][]string{
		{"Subject", csr.Subject.String()},
		{"Public Key", KeyDescription(csr.PublicKey)},
		{"Signature Algorithm", csr.SignatureAlgorithm.String()},
		{"Signature Valid", fmt.Sprintf("%t", csr.CheckSignature() == nil)},
	}
	rows = append(rows, sanRows(csr.DNSNames, csr.EmailAddresses, ipStrings(csr.IPAddresses), uriStrings(csr.URIs))...)
	rows = append(rows, []string{"Extensions", fmt.Sprintf("%d", len(csr.Extensions))})
	return rows
}

func crlFields(crl *x509.RevocationList) [][]string {
	rows := [][]string{
		{"Issuer", crl.Issuer.String()},
		{"This Update", crl.ThisUpdate.UTC().Format(describeTimeLayout)},
		{"Next Update", crl.NextUpdate.UTC().Format(describeTimeLayout)},
		{"Signature Algorithm", crl.SignatureAlgorithm.String()},
		{"Entries", fmt.Sprintf("%d", len(crl.RevokedCertificateEntries))},
	}
	if crl.Number != nil {
		rows = append(rows, []string{"CRL Number", crl.Number.String()})
	}
	if len(crl.AuthorityKeyId) > 0 {
		rows = append(rows, []string{"Authority Key ID", hex.EncodeToString(crl.AuthorityKeyId)})
	}
	return rows
}

func keyFields(pub any) [][]string {
	rows := [][]string{{"Type", KeyDescription(pub)}}
	if id, err := KeyID(pub); err == nil {
		rows = append(rows, []string{"Key ID", hex.EncodeToString(id)})
	}
	return rows
}

func sanRows(dns, emails, ips, uris []string) [][]string {
	var rows [][]string
	for _, f := range []struct {
		name   string
		values []string
	}{
		{"DNS Names", dns},
		{"Email Addresses", emails},
		{"IP Addresses", ips},
		{"URIs", uris},
	} {
		if len(f.values) > 0 {
			rows = append(rows, []string{f.name, strings.Join(f.values, ", ")})
		}
	}
	return rows
}

func ipStrings(ips []net.IP) []string {
	var out []string
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return out
}

func uriStrings(uris []*url.URL) []string {
	var out []string
	for _, u := range uris {
		out = append(out, u.String())
	}
	return out
}

func keyUsageString(ku x509.KeyUsage) string {
	var names []string
	for _, u := range keyUsageNames {
		if ku&u.bit != 0 {
			names = append(names, u.name)
		}
	}
	return strings.Join(names, ", ")
}

func extKeyUsageString(usages []x509.ExtKeyUsage, unknown []asn1.ObjectIdentifier) string {
	var names []string
	for _, u := range usages {
		if n, ok := extKeyUsageNames[u]; ok {
			names = append(names, n)
			continue
		}
		names = append(names, fmt.Sprintf("ext(%d)", u))
	}
	for _, oid := range unknown {
		names = append(names, oid.String())
	}
	return strings.Join(names, ", ")
}

func formatSerial(b []byte) string {
	if len(b) == 0 {
		return "00"
	}
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, ":")
}

// ReasonName returns the RFC 5280 name of a CRL reason code.
func ReasonName(code int) string {
	if code >= 0 && code < len(reasonNames) && reasonNames[code] != "" {
		return reasonNames[code]
	}
	return fmt.Sprintf("reason(%d)", code)
}

var reasonNames = []string{
	0:  "unspecified",
	1:  "keyCompromise",
	2:  "cACompromise",
	3:  "affiliationChanged",
	4:  "superseded",
	5:  "cessationOfOperation",
	6:  "certificateHold",
	8:  "removeFromCRL",
	9:  "privilegeWithdrawn",
	10: "aACompromise",
}

// ParseReason maps an RFC 5280 reason name, case-insensitively, to its code.
func ParseReason(name string) (int, bool) {
	for code, n := range reasonNames {
		if n != "" && strings.EqualFold(n, name) {
			return code, true
		}
	}
	return 0, false
}
