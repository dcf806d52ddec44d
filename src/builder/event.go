// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"slices"
	"time"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
	"github.com/google/uuid"
)

// Kind names a builder. Its string form is used as a metric label.
type Kind string

// Builder kinds.
const (
	KindKeyPair     Kind = "keypair"
	KindCSR         Kind = "csr"
	KindCertificate Kind = "certificate"
	KindCRL         Kind = "crl"
	KindTransform   Kind = "transform"
)

var kindModes = map[Kind][]model.Mode{
	KindKeyPair:     {model.ModePrivateKey, model.ModePublicKey, model.ModeKeyPair},
	KindCSR:         {model.ModeCertificateSigningRequest},
	KindCertificate: {model.ModeCertificate},
	KindCRL:         {model.ModeCrl},
	KindTransform:   {model.ModeTransform},
}

// Accepts reports whether builders of kind k handle mode m.
func (k Kind) Accepts(m model.Mode) bool { return slices.Contains(kindModes[k], m) }

// KindForMode returns the builder kind that handles m. Config and None have none.
func KindForMode(m model.Mode) (Kind, bool) {
	for k, modes := range kindModes {
		if slices.Contains(modes, m) {
			return k, true
		}
	}
	return "", false
}

// Step is a state of the build state machine.
//
// Every build starts in validating. It then passes through loading key or
// generating key and signing when the mode needs them, then encoding, and ends in
// done or failed.
type Step string

// Build steps in the order they can occur.
const (
	StepValidating    Step = "validating"
	StepLoadingKey    Step = "loading key"
	StepGeneratingKey Step = "generating key"
	StepSigning       Step = "signing"
	StepEncoding      Step = "encoding"
	StepDone          Step = "done"
	StepFailed        Step = "failed"
)

// Event reports a step transition of one build.
type Event struct {
	BuildID uuid.UUID `json:"buildId"`
	Kind    Kind      `json:"kind"`
	Step    Step      `json:"step"`
	Time    time.Time `json:"time"`
}

// Observer receives progress events. It is called synchronously on the building
// goroutine and must not block for long. A nil Observer is allowed.
type Observer func(Event)
