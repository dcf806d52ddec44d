// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// BigInt is an arbitrary precision integer. It marshals to JSON as a decimal
// string and accepts a JSON number, a decimal string or a "0x" hex string.
type BigInt struct {
	big.Int
}

// NewBigInt returns a BigInt holding v.
func NewBigInt(v int64) *BigInt {
	b := new(BigInt)
	b.SetInt64(v)
	return b
}

// BigIntFrom copies v into a new BigInt. A nil v yields nil.
func BigIntFrom(v *big.Int) *BigInt {
	if v == nil {
		return nil
	}
	b := new(BigInt)
	b.Set(v)
	return b
}

// Big returns a copy of the value as a *big.Int.
func (b *BigInt) Big() *big.Int {
	if b == nil {
		return nil
	}
	return new(big.Int).Set(&b.Int)
}

// Clone returns a deep copy.
func (b *BigInt) Clone() *BigInt {
	if b == nil {
		return nil
	}
	return BigIntFrom(&b.Int)
}

// MarshalJSON implements [json.Marshaler].
func (b BigInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Int.String())
}

// UnmarshalJSON implements [json.Unmarshaler].
func (b *BigInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	return b.parse(strings.TrimSpace(text))
}

func (b *BigInt) parse(text string) error {
	neg := strings.HasPrefix(text, "-")
	digits := strings.TrimPrefix(text, "-")

	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base, digits = 16, digits[2:]
	}
	if digits == "" || strings.ContainsAny(digits[:1], "+-") {
		return fmt.Errorf("model: invalid integer %q", text)
	}
	if _, ok := b.SetString(digits, base); !ok {
		return fmt.Errorf("model: invalid integer %q", text)
	}
	if neg {
		b.Neg(&b.Int)
	}
	return nil
}
