// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

// FileSlot carries one artifact payload. As input, Data takes precedence over
// FileName when both are set. As output, Data is filled by the builder and the
// payload is also written to FileName when it is set.
type FileSlot struct {
	Data     []byte   `json:"data,omitempty"`
	FileName string   `json:"fileName,omitempty"`
	Encoding Encoding `json:"encoding,omitempty"`
	// Password protects the payload with a password envelope when set.
	Password *string `json:"password,omitempty"`
}

// HasSource reports whether the slot names a payload to read.
func (s *FileSlot) HasSource() bool {
	return s != nil && (len(s.Data) > 0 || s.FileName != "")
}

// Filled reports whether the slot already carries a payload.
func (s *FileSlot) Filled() bool {
	return s != nil && len(s.Data) > 0
}

// PasswordBytes returns the slot password as bytes, or nil when there is none.
func (s *FileSlot) PasswordBytes() []byte {
	if s == nil || s.Password == nil || *s.Password == "" {
		return nil
	}
	return []byte(*s.Password)
}

// Clone returns a deep copy of the slot.
func (s *FileSlot) Clone() *FileSlot {
	if s == nil {
		return nil
	}
	out := *s
	out.Data = cloneBytes(s.Data)
	out.Password = cloneString(s.Password)
	return &out
}

func cloneSlots(in []*FileSlot) []*FileSlot {
	if in == nil {
		return nil
	}
	out := make([]*FileSlot, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
