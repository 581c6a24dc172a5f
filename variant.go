package avenum

import (
	"fmt"
	"math"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Tag identifies which case of the [Variant] sum type a value holds.
type Tag int

const (
	TagNoValue Tag = iota
	TagIntValue
	TagStringValue
	TagStructValue
	TagArrayValue
	TagCompositeValue
)

// Reserved document keys, one per Tag. These are the wire-level names and
// must not change.
const (
	NoValueKey        = "noAvKey"
	IntValueKey       = "intAvKey"
	StringValueKey    = "stringAvKey"
	StructValueKey    = "codableAvKey"
	ArrayValueKey     = "doubleArrayAvKey"
	CompositeValueKey = "assortedAvKey"
)

var (
	tagKeys = [...]string{
		TagNoValue:        NoValueKey,
		TagIntValue:       IntValueKey,
		TagStringValue:    StringValueKey,
		TagStructValue:    StructValueKey,
		TagArrayValue:     ArrayValueKey,
		TagCompositeValue: CompositeValueKey,
	}
	tagNames = [...]string{
		TagNoValue:        "NoValue",
		TagIntValue:       "IntValue",
		TagStringValue:    "StringValue",
		TagStructValue:    "StructValue",
		TagArrayValue:     "ArrayValue",
		TagCompositeValue: "CompositeValue",
	}
)

// Tags returns every Tag in decode priority order.
func Tags() []Tag {
	return []Tag{
		TagNoValue,
		TagIntValue,
		TagStringValue,
		TagStructValue,
		TagArrayValue,
		TagCompositeValue,
	}
}

func (t Tag) valid() bool { return t >= TagNoValue && t <= TagCompositeValue }

// Key returns the reserved document key for t, or "" if t is not a known Tag.
func (t Tag) Key() string {
	if !t.valid() {
		return ""
	}
	return tagKeys[t]
}

func (t Tag) String() string {
	if !t.valid() {
		return fmt.Sprintf("Tag(%d)", int(t))
	}
	return tagNames[t]
}

// TagForKey returns the Tag whose reserved key is key.
func TagForKey(key string) (Tag, bool) {
	for _, t := range Tags() {
		if tagKeys[t] == key {
			return t, true
		}
	}
	return 0, false
}

// Record is the nested record carried by [StructValue] and [CompositeValue].
//
// Both members are required when decoding; unknown members are ignored.
type Record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (r *Record) UnmarshalJSONV2(dec *jsontext.Decoder, opts json.Options) error {
	if k := dec.PeekKind(); k != '{' {
		return fmt.Errorf("expected object start, but encountered %v", k)
	}

	var shadow struct {
		Name  *string `json:"name"`
		Count *int    `json:"count"`
	}
	if err := json.UnmarshalDecode(dec, &shadow, opts); err != nil {
		return err
	}
	switch {
	case shadow.Name == nil:
		return ErrMissingField{Field: "name"}
	case shadow.Count == nil:
		return ErrMissingField{Field: "count"}
	}

	*r = Record{Name: *shadow.Name, Count: *shadow.Count}
	return nil
}

// Variant is the closed sum type. The only implementations are [NoValue],
// [IntValue], [StringValue], [StructValue], [ArrayValue] and
// [CompositeValue].
type Variant interface {
	Tag() Tag

	// payload returns the Go value encoded under the variant's reserved key.
	payload() any
}

// NoValue is the variant without associated data.
type NoValue struct{}

// IntValue carries a single integer.
type IntValue int

// StringValue carries a single string.
type StringValue string

// StructValue carries a nested [Record].
type StructValue Record

// ArrayValue carries an ordered sequence of floats. A nil ArrayValue and an
// empty one both encode as [], and decoding always produces a non-nil slice,
// so ArrayValue(nil) round-trips to ArrayValue{}.
type ArrayValue []float64

// CompositeValue carries four heterogeneous fields.
type CompositeValue struct {
	Int    int
	Text   string
	Record Record

	// Floats treats nil and empty the same: both encode as [], and decoding
	// always produces a non-nil slice.
	Floats []float64
}

func (NoValue) Tag() Tag        { return TagNoValue }
func (IntValue) Tag() Tag       { return TagIntValue }
func (StringValue) Tag() Tag    { return TagStringValue }
func (StructValue) Tag() Tag    { return TagStructValue }
func (ArrayValue) Tag() Tag     { return TagArrayValue }
func (CompositeValue) Tag() Tag { return TagCompositeValue }

// Presence of noAvKey is what selects NoValue; true is a placeholder.
func (NoValue) payload() any          { return true }
func (v IntValue) payload() any       { return int(v) }
func (v StringValue) payload() any    { return string(v) }
func (v StructValue) payload() any    { return Record(v) }
func (v ArrayValue) payload() any     { return []float64(v) }
func (v CompositeValue) payload() any { return assortedCase(v) }

// assortedCase is the keyed wire shape of CompositeValue.
type assortedCase struct {
	Int    int       `json:"someInt"`
	Text   string    `json:"someString"`
	Record Record    `json:"someCodableValue"`
	Floats []float64 `json:"someDoubleArrayValue"`
}

func (a *assortedCase) UnmarshalJSONV2(dec *jsontext.Decoder, opts json.Options) error {
	if k := dec.PeekKind(); k != '{' {
		return fmt.Errorf("expected object start, but encountered %v", k)
	}

	var shadow struct {
		Int    *int      `json:"someInt"`
		Text   *string   `json:"someString"`
		Record *Record   `json:"someCodableValue"`
		Floats *floatSeq `json:"someDoubleArrayValue"`
	}
	if err := json.UnmarshalDecode(dec, &shadow, opts); err != nil {
		return err
	}
	switch {
	case shadow.Int == nil:
		return ErrMissingField{Field: "someInt"}
	case shadow.Text == nil:
		return ErrMissingField{Field: "someString"}
	case shadow.Record == nil:
		return ErrMissingField{Field: "someCodableValue"}
	case shadow.Floats == nil:
		return ErrMissingField{Field: "someDoubleArrayValue"}
	}

	*a = assortedCase{
		Int:    *shadow.Int,
		Text:   *shadow.Text,
		Record: *shadow.Record,
		Floats: *shadow.Floats,
	}
	return nil
}

// floatSeq decodes a JSON array of numbers, rejecting null elements that the
// default []float64 unmarshaling would turn into zeros.
type floatSeq []float64

func (s *floatSeq) UnmarshalJSONV2(dec *jsontext.Decoder, opts json.Options) error {
	if k := dec.PeekKind(); k != '[' {
		return fmt.Errorf("expected array start, but encountered %v", k)
	}
	if _, err := dec.ReadToken(); err != nil {
		return fmt.Errorf("failed to read array start token: %w", err)
	}

	seq := floatSeq{}
	for dec.PeekKind() != ']' {
		tok, err := dec.ReadToken()
		if err != nil {
			return fmt.Errorf("failed to read array element: %w", err)
		}
		if k := tok.Kind(); k != '0' {
			return fmt.Errorf("expected number array element, but encountered %v", k)
		}
		f := tok.Float()
		if math.IsInf(f, 0) {
			return fmt.Errorf("number %s overflows float64", tok.String())
		}
		seq = append(seq, f)
	}
	if _, err := dec.ReadToken(); err != nil {
		return fmt.Errorf("failed to read array end token: %w", err)
	}

	*s = seq
	return nil
}
