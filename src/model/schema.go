// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON schema of a camelCase configuration document.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// ValidateJSON validates a camelCase configuration document against [Schema].
// Every violation is reported as a [FieldError] in the aggregated error.
func ValidateJSON(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("model: schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs *multierror.Error
	for _, re := range result.Errors() {
		field := strings.TrimPrefix(re.Field(), "(root).")
		errs = multierror.Append(errs, &FieldError{Field: field, Message: re.Description()})
	}
	return errs.ErrorOrNil()
}
