package avenum

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// MarshalTOML returns the TOML encoding of v's [Document].
func MarshalTOML(v Variant) ([]byte, error) {
	doc, err := Encode(v)
	if err != nil {
		return nil, err
	}

	m := make(map[string]any, len(doc))
	for k, raw := range doc {
		gv, err := genericFromJSON(jsontext.NewDecoder(bytes.NewReader(raw)))
		if err != nil {
			return nil, fmt.Errorf("failed to convert value for key %s: %w", k, err)
		}
		m[k] = gv
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode toml: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalTOML parses TOML text as a [Document] and decodes it with the same
// rules as [Decode].
func UnmarshalTOML(b []byte, cfg *Config) (Variant, error) {
	doc, err := documentFromTOML(b)
	if err != nil {
		return nil, ErrInvalidDocument{Err: err}
	}
	return Decode(doc, cfg)
}

func documentFromTOML(b []byte) (Document, error) {
	var m map[string]any
	if _, err := toml.Decode(string(b), &m); err != nil {
		return nil, err
	}

	doc := make(Document, len(m))
	for k, v := range m {
		raw, err := json.Marshal(finiteTOML(v), json.Deterministic(true))
		if err != nil {
			return nil, fmt.Errorf("failed to convert value for key %s: %w", k, err)
		}
		doc[k] = jsontext.Value(raw)
	}
	return doc, nil
}

// finiteTOML replaces TOML nan and inf, which have no JSON number form, with
// strings so that they reach the decode scan as ordinary shape mismatches.
func finiteTOML(v any) any {
	switch v := v.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = finiteTOML(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = finiteTOML(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = finiteTOML(e)
		}
		return out
	}
	return v
}

// genericFromJSON reads one JSON value from dec into maps, slices and scalars
// the TOML encoder understands. Integer literals stay int64 so that the full
// int range survives.
func genericFromJSON(dec *jsontext.Decoder) (any, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}

	switch k := tok.Kind(); k {
	case 'n':
		return nil, fmt.Errorf("null has no TOML representation")
	case 't', 'f':
		return tok.Bool(), nil
	case '"':
		return tok.String(), nil
	case '0':
		raw := tok.String()
		if !strings.ContainsAny(raw, ".eE") {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return n, nil
			}
		}
		return tok.Float(), nil

	case '{':
		m := map[string]any{}
		for dec.PeekKind() != '}' {
			name, err := dec.ReadToken()
			if err != nil {
				return nil, err
			}
			// name is only valid until the next decoder call
			key := name.String()
			v, err := genericFromJSON(dec)
			if err != nil {
				return nil, err
			}
			m[key] = v
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return m, nil

	case '[':
		s := []any{}
		hasFloat := false
		for dec.PeekKind() != ']' {
			v, err := genericFromJSON(dec)
			if err != nil {
				return nil, err
			}
			if _, ok := v.(float64); ok {
				hasFloat = true
			}
			s = append(s, v)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		if hasFloat {
			// keep number arrays homogeneous
			for i, v := range s {
				if n, ok := v.(int64); ok {
					s[i] = float64(n)
				}
			}
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unexpected token kind %v", k)
	}
}
