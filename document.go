package avenum

import (
	"fmt"
	"sort"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Document is the keyed intermediate form of a [Variant]. A well-formed
// document has exactly one reserved key (see [Tag.Key]) whose value is the
// variant's JSON-encoded payload.
//
// Values are kept as raw JSON so that key presence can be tested
// independently of whether the value decodes.
type Document map[string]jsontext.Value

// Has reports whether key is present in d, regardless of its value.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Keys returns the reserved keys present in d, in decode priority order.
func (d Document) Keys() []string {
	var keys []string
	for _, t := range Tags() {
		if d.Has(t.Key()) {
			keys = append(keys, t.Key())
		}
	}
	return keys
}

// orderedKeys returns every key in d: reserved keys first in priority order,
// then any others lexicographically.
func (d Document) orderedKeys() []string {
	keys := d.Keys()
	var others []string
	for k := range d {
		if _, ok := TagForKey(k); !ok {
			others = append(others, k)
		}
	}
	sort.Strings(others)
	return append(keys, others...)
}

func (d Document) MarshalJSONV2(enc *jsontext.Encoder, opts json.Options) error {
	if err := enc.WriteToken(jsontext.ObjectStart); err != nil {
		return fmt.Errorf("failed to write object start token: %w", err)
	}

	for _, k := range d.orderedKeys() {
		if err := enc.WriteToken(jsontext.String(k)); err != nil {
			return fmt.Errorf("failed to write key token %s: %w", k, err)
		}
		if err := enc.WriteValue(d[k]); err != nil {
			return fmt.Errorf("failed to write value for key %s: %w", k, err)
		}
	}

	if err := enc.WriteToken(jsontext.ObjectEnd); err != nil {
		return fmt.Errorf("failed to write object end token: %w", err)
	}
	return nil
}

func (d *Document) UnmarshalJSONV2(dec *jsontext.Decoder, opts json.Options) error {
	switch k := dec.PeekKind(); k {
	case 'n':
		// A JSON null is an empty document
		if _, err := dec.ReadToken(); err != nil {
			return fmt.Errorf("failed to read null token: %w", err)
		}
		*d = nil
		return nil
	case '{':
	default:
		return fmt.Errorf("expected object start, but encountered %v", k)
	}

	m := map[string]jsontext.Value{}
	if err := json.UnmarshalDecode(dec, &m, opts); err != nil {
		return fmt.Errorf("failed to unmarshal to map[string]jsontext.Value: %w", err)
	}
	*d = m
	return nil
}
