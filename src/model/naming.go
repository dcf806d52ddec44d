// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NamingPolicy selects how property names are spelled in JSON documents.
type NamingPolicy string

const (
	CamelCase  NamingPolicy = "camelCase"
	PascalCase NamingPolicy = "PascalCase"
	KebabCase  NamingPolicy = "kebab-case"
	SnakeCase  NamingPolicy = "snake_case"
)

// freeFormKeys are object properties whose member names are data, not field names.
var freeFormKeys = map[string]bool{"oids": true}

// ParseNamingPolicy returns the policy with the given name, ignoring case. An
// empty name selects [CamelCase].
func ParseNamingPolicy(name string) (NamingPolicy, error) {
	if name == "" {
		return CamelCase, nil
	}
	for _, p := range []NamingPolicy{CamelCase, PascalCase, KebabCase, SnakeCase} {
		if strings.EqualFold(string(p), name) {
			return p, nil
		}
	}
	return "", fmt.Errorf("model: unknown naming policy %q", name)
}

// Marshal encodes v as JSON with property names spelled according to policy.
func Marshal(v any, policy NamingPolicy) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if policy == "" || policy == CamelCase {
		return data, nil
	}

	tree, err := decodeTree(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rewriteKeys(tree, func(k string) string { return toPolicy(k, policy) }))
}

// Unmarshal decodes JSON whose property names follow policy into v.
func Unmarshal(data []byte, v any, policy NamingPolicy) error {
	camel, err := Canonicalize(data, policy)
	if err != nil {
		return err
	}
	return json.Unmarshal(camel, v)
}

// Canonicalize rewrites the property names of a JSON document spelled according
// to policy into camelCase, the spelling [Schema] describes.
func Canonicalize(data []byte, policy NamingPolicy) ([]byte, error) {
	if policy == "" || policy == CamelCase {
		return data, nil
	}

	tree, err := decodeTree(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rewriteKeys(tree, fromPolicy))
}

func decodeTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// rewriteKeys renames object members recursively. Members of free-form maps keep
// their names; the map's own key is still renamed.
func rewriteKeys(node any, rename func(string) string) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			nk := rename(k)
			if freeFormKeys[fromPolicy(k)] {
				out[nk] = v
				continue
			}
			out[nk] = rewriteKeys(v, rename)
		}
		return out
	case []any:
		for i, v := range n {
			n[i] = rewriteKeys(v, rename)
		}
		return n
	default:
		return node
	}
}

// words splits a camelCase, PascalCase, kebab-case or snake_case name into lower-case words.
func words(name string) []string {
	var (
		out  []string
		cur  []rune
		prev rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for _, r := range name {
		switch {
		case r == '-' || r == '_' || r == ' ':
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return out
}

// titleWord upper-cases the first letter of a word. A Caser keeps state, so one
// is created per call.
func titleWord(w string) string {
	return cases.Title(language.Und).String(w)
}

func toPolicy(camel string, policy NamingPolicy) string {
	w := words(camel)
	switch policy {
	case PascalCase:
		for i := range w {
			w[i] = titleWord(w[i])
		}
		return strings.Join(w, "")
	case KebabCase:
		return strings.Join(w, "-")
	case SnakeCase:
		return strings.Join(w, "_")
	default:
		return camel
	}
}

func fromPolicy(name string) string {
	w := words(name)
	for i := 1; i < len(w); i++ {
		w[i] = titleWord(w[i])
	}
	return strings.Join(w, "")
}
