// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

func ptr[T any](v T) *T { return &v }

func fullConfig() *model.Config {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &model.Config{
		Mode: model.ModeCertificate,
		SubjectName: &model.SubjectName{
			CommonName:       "Test",
			DomainComponents: []string{"example", "com"},
			Oids:             map[string]string{"2.5.4.5": "1234"},
		},
		Validity:    &model.Validity{NotBefore: ptr(now), NotAfter: ptr(now.Add(time.Hour))},
		CrlValidity: &model.CrlValidity{ThisUpdate: ptr(now)},
		KeyPair: &model.KeyPairSpec{
			Algorithm:  model.KeyAlgorithmRSA,
			PrivateKey: &model.FileSlot{Data: []byte{1, 2, 3}, Password: ptr("pw")},
		},
		Extensions: &model.Extensions{
			BasicConstraints:       &model.BasicConstraints{CA: true, PathLength: ptr(2)},
			KeyUsage:               &model.KeyUsage{Usages: []string{"keyCertSign"}},
			ExtendedKeyUsage:       &model.ExtendedKeyUsage{Usages: []string{"serverAuth"}, Oids: []string{"1.2.3.4"}},
			SubjectAlternativeName: &model.SubjectAlternativeName{Names: []model.GeneralName{{Type: "dns", Value: "a"}}},
			SubjectKeyIdentifier:   &model.KeyIdentifier{Value: []byte{9}},
			Raw:                    []model.RawExtension{{Oid: "1.2.3", Value: []byte{5, 0}}},
		},
		SerialNumber: model.NewBigInt(42),
		Issuer: &model.IssuerSpec{
			PrivateKey:  &model.FileSlot{Data: []byte{7}},
			Certificate: &model.FileSlot{FileName: "ca.pem"},
		},
		Csr:            &model.CsrOptions{ImportExtensions: true},
		CrlEntries:     []model.CrlEntry{{SerialNumber: model.NewBigInt(5), RevocationDate: now}},
		Transform:      &model.TransformSpec{Inputs: []*model.FileSlot{{Data: []byte{8}}}},
		CertFile:       &model.FileSlot{FileName: "out.pem"},
		TransformFiles: []*model.FileSlot{{Data: []byte{6}}},
	}
}

func TestConfig_Clone(t *testing.T) {
	orig := fullConfig()
	clone := orig.Clone()
	require.Equal(t, orig, clone, "clone differs from original")

	tests := []struct {
		name   string
		mutate func(c *model.Config)
	}{
		{"subject attribute", func(c *model.Config) { c.SubjectName.CommonName = "changed" }},
		{"subject domain component", func(c *model.Config) { c.SubjectName.DomainComponents[0] = "changed" }},
		{"subject oid map", func(c *model.Config) { c.SubjectName.Oids["2.5.4.5"] = "changed" }},
		{"validity time", func(c *model.Config) { *c.Validity.NotBefore = time.Time{} }},
		{"crl validity time", func(c *model.Config) { *c.CrlValidity.ThisUpdate = time.Time{} }},
		{"key bytes", func(c *model.Config) { c.KeyPair.PrivateKey.Data[0] = 0xff }},
		{"key password", func(c *model.Config) { *c.KeyPair.PrivateKey.Password = "changed" }},
		{"path length", func(c *model.Config) { *c.Extensions.BasicConstraints.PathLength = 9 }},
		{"key usages", func(c *model.Config) { c.Extensions.KeyUsage.Usages[0] = "changed" }},
		{"eku oids", func(c *model.Config) { c.Extensions.ExtendedKeyUsage.Oids[0] = "9.9" }},
		{"san names", func(c *model.Config) { c.Extensions.SubjectAlternativeName.Names[0].Value = "b" }},
		{"ski", func(c *model.Config) { c.Extensions.SubjectKeyIdentifier.Value[0] = 0 }},
		{"raw extension", func(c *model.Config) { c.Extensions.Raw[0].Value[0] = 0 }},
		{"serial", func(c *model.Config) { c.SerialNumber.SetInt64(1) }},
		{"issuer key", func(c *model.Config) { c.Issuer.PrivateKey.Data[0] = 0 }},
		{"csr options", func(c *model.Config) { c.Csr.ImportExtensions = false }},
		{"crl entry serial", func(c *model.Config) { c.CrlEntries[0].SerialNumber.SetInt64(99) }},
		{"transform input", func(c *model.Config) { c.Transform.Inputs[0].Data[0] = 0 }},
		{"transform files", func(c *model.Config) { c.TransformFiles[0].Data[0] = 0 }},
		{"output slot", func(c *model.Config) { c.CertFile.Data = []byte{1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := orig.Clone()
			tt.mutate(c)
			assert.Equal(t, fullConfig(), orig, "mutating the clone changed the original")
		})
	}
}

func TestConfig_CloneNil(t *testing.T) {
	var c *model.Config
	assert.Nil(t, c.Clone())
}

func TestFileSlot(t *testing.T) {
	var nilSlot *model.FileSlot
	assert.False(t, nilSlot.HasSource())
	assert.False(t, nilSlot.Filled())
	assert.Nil(t, nilSlot.PasswordBytes())

	s := &model.FileSlot{FileName: "x.pem"}
	assert.True(t, s.HasSource())
	assert.False(t, s.Filled())

	s.Data = []byte("x")
	s.Password = ptr("")
	assert.True(t, s.Filled())
	assert.Nil(t, s.PasswordBytes(), "an empty password means no password")

	s.Password = ptr("secret")
	assert.Equal(t, []byte("secret"), s.PasswordBytes())
}

func TestSubjectName_Attributes(t *testing.T) {
	n := &model.SubjectName{
		Email:            "a@example.com",
		CommonName:       "Test",
		Country:          "US",
		DomainComponents: []string{"example", "com"},
		Oids:             map[string]string{"2.5.4.97": "VAT", "2.5.4.5": "SN"},
	}

	var got []string
	for _, a := range n.Attributes() {
		got = append(got, a.Type.String()+"="+a.Value)
	}
	assert.Equal(t, []string{
		"2.5.4.6=US",
		"2.5.4.3=Test",
		"0.9.2342.19200300.100.1.25=example",
		"0.9.2342.19200300.100.1.25=com",
		"1.2.840.113549.1.9.1=a@example.com",
		"2.5.4.5=SN",
		"2.5.4.97=VAT",
	}, got, "attributes must follow the declaration order")

	assert.True(t, (&model.SubjectName{Empty: true}).IsZero())
	assert.False(t, n.IsZero())
}

func TestParseMode(t *testing.T) {
	m, err := model.ParseMode("certificatesigningrequest")
	require.NoError(t, err)
	assert.Equal(t, model.ModeCertificateSigningRequest, m)

	_, err = model.ParseMode("bogus")
	assert.Error(t, err)

	text, err := model.ModeCrl.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Crl", string(text))
}
