package avenum

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
	"gopkg.in/yaml.v3"
)

// MarshalYAML returns the YAML encoding of v's [Document]. Record members keep
// their JSON order and sequences are written in flow style:
//
//	assortedAvKey:
//	  someInt: 1
//	  someString: "2"
//	  someCodableValue:
//	    name: "3"
//	    count: 4
//	  someDoubleArrayValue: [5, 6, 7]
func MarshalYAML(v Variant) ([]byte, error) {
	doc, err := Encode(v)
	if err != nil {
		return nil, err
	}

	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range doc.orderedKeys() {
		n, err := yamlNodeFromJSON(jsontext.NewDecoder(bytes.NewReader(doc[k])))
		if err != nil {
			return nil, fmt.Errorf("failed to convert value for key %s: %w", k, err)
		}
		root.Content = append(root.Content, yamlString(k), n)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush yaml encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML parses YAML text as a [Document] and decodes it with the same
// rules as [Decode]. Anchors, aliases and merge keys (<<) are resolved.
func UnmarshalYAML(b []byte, cfg *Config) (Variant, error) {
	doc, err := documentFromYAML(b)
	if err != nil {
		return nil, ErrInvalidDocument{Err: err}
	}
	return Decode(doc, cfg)
}

func documentFromYAML(b []byte) (Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		// empty input
		return nil, nil
	}

	m := resolveAlias(&root)
	if m.Kind == yaml.DocumentNode && len(m.Content) > 0 {
		m = resolveAlias(m.Content[0])
	}
	if m.Kind == yaml.ScalarNode && m.ShortTag() == "!!null" {
		return nil, nil
	}
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping at line %d, but encountered %s", m.Line, m.ShortTag())
	}

	entries, err := mappingEntries(m)
	if err != nil {
		return nil, err
	}

	doc := Document{}
	for _, e := range entries {
		if doc.Has(e.key) {
			return nil, fmt.Errorf("duplicate key %q at line %d", e.key, e.line)
		}

		var buf bytes.Buffer
		if err := writeYAMLAsJSON(jsontext.NewEncoder(&buf), e.value); err != nil {
			return nil, fmt.Errorf("failed to convert value for key %s: %w", e.key, err)
		}
		doc[e.key] = jsontext.Value(bytes.TrimSpace(buf.Bytes()))
	}
	return doc, nil
}

type yamlEntry struct {
	key   string
	line  int
	value *yaml.Node
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" &&
		(n.Tag == "" || n.Tag == "!" || n.ShortTag() == "!!merge")
}

// mappingEntries returns the key/value pairs of mapping node n with merge
// keys expanded. Keys written in n win over merged keys, and earlier merge
// sources win over later ones.
func mappingEntries(n *yaml.Node) ([]yamlEntry, error) {
	var explicit, merged []yamlEntry
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if !isMergeKey(k) {
			explicit = append(explicit, yamlEntry{key: k.Value, line: k.Line, value: v})
			continue
		}

		sources := []*yaml.Node{v}
		if rv := resolveAlias(v); rv.Kind == yaml.SequenceNode {
			sources = rv.Content
		}
		for _, src := range sources {
			src = resolveAlias(src)
			if src.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("merge value at line %d is not a mapping", src.Line)
			}
			es, err := mappingEntries(src)
			if err != nil {
				return nil, err
			}
			merged = append(merged, es...)
		}
	}

	seen := make(map[string]bool, len(explicit))
	for _, e := range explicit {
		seen[e.key] = true
	}
	entries := explicit
	for _, e := range merged {
		if !seen[e.key] {
			seen[e.key] = true
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func yamlString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// yamlNodeFromJSON reads one JSON value from dec and returns the equivalent
// YAML node.
func yamlNodeFromJSON(dec *jsontext.Decoder) (*yaml.Node, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}

	switch k := tok.Kind(); k {
	case 'n':
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case 't', 'f':
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(tok.Bool())}, nil
	case '"':
		return yamlString(tok.String()), nil
	case '0':
		raw := tok.String()
		tag := "!!int"
		if strings.ContainsAny(raw, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: raw}, nil

	case '{':
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for dec.PeekKind() != '}' {
			name, err := dec.ReadToken()
			if err != nil {
				return nil, err
			}
			// name is only valid until the next decoder call
			k := yamlString(name.String())
			v, err := yamlNodeFromJSON(dec)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, k, v)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return n, nil

	case '[':
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for dec.PeekKind() != ']' {
			v, err := yamlNodeFromJSON(dec)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, v)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		n.Style = yaml.FlowStyle
		return n, nil

	default:
		return nil, fmt.Errorf("unexpected token kind %v", k)
	}
}

// writeYAMLAsJSON writes n to enc as a single JSON value.
func writeYAMLAsJSON(enc *jsontext.Encoder, n *yaml.Node) error {
	n = resolveAlias(n)

	switch n.Kind {
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		switch v := v.(type) {
		case nil:
			return enc.WriteToken(jsontext.Null)
		case bool:
			return enc.WriteToken(jsontext.Bool(v))
		case string:
			return enc.WriteToken(jsontext.String(v))
		case int:
			return enc.WriteToken(jsontext.Int(int64(v)))
		case int64:
			return enc.WriteToken(jsontext.Int(v))
		case uint64:
			return enc.WriteToken(jsontext.Uint(v))
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				// no JSON number form; left for the decode scan to reject
				return enc.WriteToken(jsontext.String(n.Value))
			}
			return enc.WriteToken(jsontext.Float(v))
		default:
			// timestamps and binary scalars
			return enc.WriteToken(jsontext.String(n.Value))
		}

	case yaml.MappingNode:
		if err := enc.WriteToken(jsontext.ObjectStart); err != nil {
			return err
		}
		entries, err := mappingEntries(n)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := enc.WriteToken(jsontext.String(e.key)); err != nil {
				return err
			}
			if err := writeYAMLAsJSON(enc, e.value); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.ObjectEnd)

	case yaml.SequenceNode:
		if err := enc.WriteToken(jsontext.ArrayStart); err != nil {
			return err
		}
		for _, c := range n.Content {
			if err := writeYAMLAsJSON(enc, c); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.ArrayEnd)
	}
	return fmt.Errorf("unsupported yaml node kind %v at line %d", n.Kind, n.Line)
}
