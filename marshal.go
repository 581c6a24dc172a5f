package avenum

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// By default, Decode scans the reserved keys in priority order and returns
	// the first one whose value parses as its variant's payload, skipping keys
	// whose values have the wrong shape.
	//
	// If Exclusive is true, Decode instead requires exactly one reserved key,
	// returns [ErrAmbiguousDocument] when there are more, and never falls
	// through to another key.
	Exclusive bool

	// Logger receives Debug entries for every rejected key and for documents
	// that match no variant.
	//
	// If unset, nothing is logged.
	Logger logrus.FieldLogger
}

var silentLogger = func() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}()

type codec struct {
	exclusive bool
	log       logrus.FieldLogger
}

func newCodec(cfg *Config) codec {
	if cfg == nil {
		cfg = &Config{}
	}
	c := codec{
		exclusive: cfg.Exclusive,
		log:       cfg.Logger,
	}
	if c.log == nil {
		c.log = silentLogger
	}
	return c
}

// Encode returns the single-key [Document] for v.
func Encode(v Variant) (Document, error) {
	return encode(v)
}

func encode(v Variant, opts ...json.Options) (Document, error) {
	if v == nil {
		return nil, ErrNilVariant{}
	}
	b, err := json.Marshal(v.payload(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", v.Tag(), err)
	}
	return Document{v.Tag().Key(): jsontext.Value(b)}, nil
}

// Decode returns the Variant selected by doc.
//
// If no reserved key selects a variant, Decode returns [ErrNoMatchingVariant].
// Behavior can be customized by providing a non-nil [Config].
func Decode(doc Document, cfg *Config) (Variant, error) {
	return newCodec(cfg).decode(doc)
}

func (c codec) decode(doc Document, opts ...json.Options) (Variant, error) {
	if c.exclusive {
		return c.decodeExclusive(doc, opts...)
	}

	var rejected []string
	for _, tag := range Tags() {
		raw, ok := doc[tag.Key()]
		if !ok {
			continue
		}
		v, err := tryShape(tag, raw, opts...)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"tag": tag.String(),
				"key": tag.Key(),
			}).WithError(err).Debug("payload does not match variant shape, trying next key")
			rejected = append(rejected, tag.Key())
			continue
		}
		return v, nil
	}

	c.log.WithField("rejected", rejected).Debug("no variant matched document")
	return nil, ErrNoMatchingVariant{Rejected: rejected}
}

func (c codec) decodeExclusive(doc Document, opts ...json.Options) (Variant, error) {
	keys := doc.Keys()
	switch len(keys) {
	case 0:
		c.log.Debug("no variant key found in document")
		return nil, ErrNoMatchingVariant{}
	case 1:
	default:
		return nil, ErrAmbiguousDocument{Keys: keys}
	}

	tag, _ := TagForKey(keys[0])
	v, err := tryShape(tag, doc[keys[0]], opts...)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"tag": tag.String(),
			"key": tag.Key(),
		}).WithError(err).Debug("payload does not match variant shape")
		return nil, ErrNoMatchingVariant{Rejected: keys}
	}
	return v, nil
}

// tryShape attempts to parse raw as the payload of tag. A non-nil error means
// the value has the wrong shape; callers treat it as a non-match.
func tryShape(tag Tag, raw jsontext.Value, opts ...json.Options) (Variant, error) {
	switch tag {
	case TagNoValue:
		return NoValue{}, nil

	case TagIntValue:
		if k := raw.Kind(); k != '0' {
			return nil, fmt.Errorf("expected number, but encountered %v", k)
		}
		var n int
		if err := json.Unmarshal(raw, &n, opts...); err != nil {
			return nil, err
		}
		return IntValue(n), nil

	case TagStringValue:
		if k := raw.Kind(); k != '"' {
			return nil, fmt.Errorf("expected string, but encountered %v", k)
		}
		var s string
		if err := json.Unmarshal(raw, &s, opts...); err != nil {
			return nil, err
		}
		return StringValue(s), nil

	case TagStructValue:
		var r Record
		if err := json.Unmarshal(raw, &r, opts...); err != nil {
			return nil, err
		}
		return StructValue(r), nil

	case TagArrayValue:
		var s floatSeq
		if err := json.Unmarshal(raw, &s, opts...); err != nil {
			return nil, err
		}
		return ArrayValue(s), nil

	case TagCompositeValue:
		var a assortedCase
		if err := json.Unmarshal(raw, &a, opts...); err != nil {
			return nil, err
		}
		return CompositeValue(a), nil
	}
	return nil, fmt.Errorf("unknown tag %v", tag)
}

// Marshal returns the JSON encoding of v's [Document].
func Marshal(v Variant) ([]byte, error) {
	doc, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Unmarshal parses JSON text as a [Document] and decodes it.
//
// Malformed text and non-object values produce [ErrInvalidDocument]. A
// well-formed document that selects no variant produces
// [ErrNoMatchingVariant].
func Unmarshal(b []byte, cfg *Config) (Variant, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, ErrInvalidDocument{Err: err}
	}
	return Decode(doc, cfg)
}

// JSONOptions joins [MarshalFunc] and [UnmarshalFunc].
func JSONOptions(cfg *Config) json.Options {
	return json.JoinOptions(
		json.WithMarshalers(
			MarshalFunc(),
		),
		json.WithUnmarshalers(
			UnmarshalFunc(cfg),
		),
	)
}

// MarshalFunc creates a [json.MarshalFuncV2] which encodes [Variant] values,
// including Variant fields nested in other Go values, as single-key
// documents. A nil Variant encodes as JSON null.
func MarshalFunc() *json.Marshalers {
	return json.MarshalFuncV2(func(enc *jsontext.Encoder, v Variant, opts json.Options) error {
		if v == nil {
			return enc.WriteToken(jsontext.Null)
		}
		doc, err := encode(v, opts)
		if err != nil {
			return err
		}
		return json.MarshalEncode(enc, doc, opts)
	})
}

// UnmarshalFunc creates a [json.UnmarshalFuncV2] which decodes documents into
// [Variant] values using the same rules as [Decode]. A JSON null leaves the
// Variant nil.
func UnmarshalFunc(cfg *Config) *json.Unmarshalers {
	c := newCodec(cfg)
	return json.UnmarshalFuncV2(func(dec *jsontext.Decoder, ptr *Variant, opts json.Options) error {
		if dec.PeekKind() == 'n' {
			if _, err := dec.ReadToken(); err != nil {
				return fmt.Errorf("failed to read null token: %w", err)
			}
			*ptr = nil
			return nil
		}

		var doc Document
		if err := json.UnmarshalDecode(dec, &doc, opts); err != nil {
			return ErrInvalidDocument{Err: err}
		}

		v, err := c.decode(doc, opts)
		if err != nil {
			return err
		}
		*ptr = v
		return nil
	})
}
