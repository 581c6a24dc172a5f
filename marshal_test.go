package avenum_test

import (
	"errors"
	"math"
	"testing"

	"github.com/dhoelle/avenum"
	"github.com/go-json-experiment/json"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripCases covers every tag, with edge values
var roundTripCases = []struct {
	name string
	v    avenum.Variant
}{
	{"no value", avenum.NoValue{}},
	{"int zero", avenum.IntValue(0)},
	{"int negative", avenum.IntValue(-42)},
	{"int max", avenum.IntValue(math.MaxInt)},
	{"int min", avenum.IntValue(math.MinInt)},
	{"string empty", avenum.StringValue("")},
	{"string escaped", avenum.StringValue("héllo \"quoted\"\nsecond line")},
	{"struct zero", avenum.StructValue{}},
	{"struct", avenum.StructValue{Name: "width", Count: -3}},
	{"array empty", avenum.ArrayValue{}},
	{"array", avenum.ArrayValue{-1.5, 0, 3.25, 1e21, math.MaxFloat64, math.SmallestNonzeroFloat64}},
	{"composite", avenum.CompositeValue{
		Int:    1,
		Text:   "2",
		Record: avenum.Record{Name: "3", Count: 4},
		Floats: []float64{5, 6, 7},
	}},
	{"composite empty", avenum.CompositeValue{Floats: []float64{}}},
	{"composite extremes", avenum.CompositeValue{
		Int:    math.MinInt,
		Record: avenum.Record{Count: math.MaxInt},
		Floats: []float64{-0.125},
	}},
}

func Test_RoundTrip(t *testing.T) {
	for _, tc := range roundTripCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := avenum.Marshal(tc.v)
			require.NoError(t, err)

			got, err := avenum.Unmarshal(b, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.v, got)

			got, err = avenum.Unmarshal(b, &avenum.Config{Exclusive: true})
			require.NoError(t, err)
			assert.Equal(t, tc.v, got)
		})
	}
}

func Test_EncodeProducesExactlyOneKey(t *testing.T) {
	for _, tc := range roundTripCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := avenum.Encode(tc.v)
			require.NoError(t, err)
			assert.Len(t, doc, 1)
			assert.True(t, doc.Has(tc.v.Tag().Key()))
			assert.Equal(t, []string{tc.v.Tag().Key()}, doc.Keys())

			b, err := avenum.Marshal(tc.v)
			require.NoError(t, err)
			var m map[string]any
			require.NoError(t, json.Unmarshal(b, &m))
			assert.Len(t, m, 1)
			assert.Contains(t, m, tc.v.Tag().Key())
		})
	}
}

func Test_EncodeNoValueIsTrue(t *testing.T) {
	b, err := avenum.Marshal(avenum.NoValue{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"noAvKey":true}`, string(b))
}

func Test_EncodeComposite(t *testing.T) {
	b, err := avenum.Marshal(avenum.CompositeValue{
		Int:    1,
		Text:   "2",
		Record: avenum.Record{Name: "3", Count: 4},
		Floats: []float64{5, 6, 7},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"assortedAvKey": {
			"someInt": 1,
			"someString": "2",
			"someCodableValue": {"name": "3", "count": 4},
			"someDoubleArrayValue": [5.0, 6.0, 7.0]
		}
	}`, string(b))
}

func Test_EncodeNilSlicesAsEmptyArrays(t *testing.T) {
	b, err := avenum.Marshal(avenum.ArrayValue(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"doubleArrayAvKey":[]}`, string(b))

	b, err = avenum.Marshal(avenum.CompositeValue{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assortedAvKey":{"someInt":0,"someString":"","someCodableValue":{"name":"","count":0},"someDoubleArrayValue":[]}}`, string(b))
}

func Test_DecodeNilSlicesAsEmpty(t *testing.T) {
	b, err := avenum.Marshal(avenum.ArrayValue(nil))
	require.NoError(t, err)
	got, err := avenum.Unmarshal(b, nil)
	require.NoError(t, err)
	assert.Equal(t, avenum.ArrayValue{}, got)

	b, err = avenum.Marshal(avenum.CompositeValue{})
	require.NoError(t, err)
	got, err = avenum.Unmarshal(b, nil)
	require.NoError(t, err)
	assert.Equal(t, avenum.CompositeValue{Floats: []float64{}}, got)
}

func Test_EncodeErrors(t *testing.T) {
	_, err := avenum.Encode(nil)
	assert.ErrorAs(t, err, &avenum.ErrNilVariant{})

	_, err = avenum.Marshal(avenum.ArrayValue{math.NaN()})
	assert.Error(t, err)
}

func Test_DecodeNoValueByKeyPresence(t *testing.T) {
	for _, in := range []string{
		`{"noAvKey":true}`,
		`{"noAvKey":false}`,
		`{"noAvKey":null}`,
		`{"noAvKey":0}`,
		`{"noAvKey":"anything"}`,
		`{"noAvKey":{"nested":[1,2]}}`,
		`{"intAvKey":3,"noAvKey":[]}`,
	} {
		t.Run(in, func(t *testing.T) {
			got, err := avenum.Unmarshal([]byte(in), nil)
			require.NoError(t, err)
			assert.Equal(t, avenum.NoValue{}, got)
		})
	}
}

func Test_DecodeFallback(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want avenum.Variant
	}{
		{
			name: "malformed int falls through to string",
			in:   `{"intAvKey":"not an int","stringAvKey":"hello"}`,
			want: avenum.StringValue("hello"),
		},
		{
			name: "priority order beats document order",
			in:   `{"stringAvKey":"s","intAvKey":7}`,
			want: avenum.IntValue(7),
		},
		{
			name: "fractional int falls through to record",
			in:   `{"intAvKey":1.5,"codableAvKey":{"name":"a","count":1}}`,
			want: avenum.StructValue{Name: "a", Count: 1},
		},
		{
			name: "null string falls through to array",
			in:   `{"stringAvKey":null,"doubleArrayAvKey":[1,2.5]}`,
			want: avenum.ArrayValue{1, 2.5},
		},
		{
			name: "incomplete record falls through to composite",
			in: `{
				"codableAvKey":{"name":"a"},
				"assortedAvKey":{"someInt":1,"someString":"","someCodableValue":{"name":"","count":0},"someDoubleArrayValue":[]}
			}`,
			want: avenum.CompositeValue{Int: 1, Floats: []float64{}},
		},
		{
			name: "unknown keys are ignored",
			in:   `{"extra":1,"intAvKey":-9}`,
			want: avenum.IntValue(-9),
		},
		{
			name: "unknown record members are ignored",
			in:   `{"codableAvKey":{"name":"a","count":2,"color":"red"}}`,
			want: avenum.StructValue{Name: "a", Count: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := avenum.Unmarshal([]byte(tt.in), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_DecodeNoMatch(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		wantRejected []string
	}{
		{"empty object", `{}`, nil},
		{"null", `null`, nil},
		{"unknown keys only", `{"foo":1,"bar":"baz"}`, nil},
		{"int as string", `{"intAvKey":"5"}`, []string{"intAvKey"}},
		{"int null", `{"intAvKey":null}`, []string{"intAvKey"}},
		{"int overflow", `{"intAvKey":1e400}`, []string{"intAvKey"}},
		{"string as number", `{"stringAvKey":5}`, []string{"stringAvKey"}},
		{"record missing count", `{"codableAvKey":{"name":"a"}}`, []string{"codableAvKey"}},
		{"record null name", `{"codableAvKey":{"name":null,"count":1}}`, []string{"codableAvKey"}},
		{"record as array", `{"codableAvKey":["a",1]}`, []string{"codableAvKey"}},
		{"array null", `{"doubleArrayAvKey":null}`, []string{"doubleArrayAvKey"}},
		{"array null element", `{"doubleArrayAvKey":[1,null]}`, []string{"doubleArrayAvKey"}},
		{"array string element", `{"doubleArrayAvKey":["1"]}`, []string{"doubleArrayAvKey"}},
		{"composite as tuple", `{"assortedAvKey":[1,"2",{"name":"3","count":4},[5]]}`, []string{"assortedAvKey"}},
		{"composite missing floats", `{"assortedAvKey":{"someInt":1,"someString":"2","someCodableValue":{"name":"3","count":4}}}`, []string{"assortedAvKey"}},
		{
			"every key malformed",
			`{"intAvKey":"a","stringAvKey":1,"codableAvKey":1,"doubleArrayAvKey":{},"assortedAvKey":true}`,
			[]string{"intAvKey", "stringAvKey", "codableAvKey", "doubleArrayAvKey", "assortedAvKey"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := avenum.Unmarshal([]byte(tt.in), nil)
			assert.Nil(t, got)

			var noMatch avenum.ErrNoMatchingVariant
			require.ErrorAs(t, err, &noMatch)
			assert.Equal(t, tt.wantRejected, noMatch.Rejected)

			var invalid avenum.ErrInvalidDocument
			assert.False(t, errors.As(err, &invalid))
		})
	}
}

func Test_DecodeInvalidDocument(t *testing.T) {
	for _, in := range []string{
		``,
		`{"intAvKey":`,
		`{"intAvKey" 5}`,
		`[{"intAvKey":5}]`,
		`5`,
		`"intAvKey"`,
		`{"intAvKey":1,"intAvKey":2}`,
	} {
		t.Run(in, func(t *testing.T) {
			got, err := avenum.Unmarshal([]byte(in), nil)
			assert.Nil(t, got)

			var invalid avenum.ErrInvalidDocument
			require.ErrorAs(t, err, &invalid)
			assert.Error(t, invalid.Unwrap())

			var noMatch avenum.ErrNoMatchingVariant
			assert.False(t, errors.As(err, &noMatch))
		})
	}
}

func Test_DecodeExclusive(t *testing.T) {
	cfg := &avenum.Config{Exclusive: true}

	t.Run("single key", func(t *testing.T) {
		got, err := avenum.Unmarshal([]byte(`{"stringAvKey":"x","other":1}`), cfg)
		require.NoError(t, err)
		assert.Equal(t, avenum.StringValue("x"), got)
	})

	t.Run("more than one key", func(t *testing.T) {
		_, err := avenum.Unmarshal([]byte(`{"noAvKey":true,"intAvKey":1}`), cfg)
		var ambiguous avenum.ErrAmbiguousDocument
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, []string{"noAvKey", "intAvKey"}, ambiguous.Keys)
	})

	t.Run("no fallback", func(t *testing.T) {
		_, err := avenum.Unmarshal([]byte(`{"intAvKey":"x"}`), cfg)
		var noMatch avenum.ErrNoMatchingVariant
		require.ErrorAs(t, err, &noMatch)
		assert.Equal(t, []string{"intAvKey"}, noMatch.Rejected)
	})

	t.Run("no key", func(t *testing.T) {
		_, err := avenum.Unmarshal([]byte(`{}`), cfg)
		assert.ErrorAs(t, err, &avenum.ErrNoMatchingVariant{})
	})
}

func Test_DecodeDocument(t *testing.T) {
	doc := avenum.Document{
		avenum.IntValueKey:    []byte(`"x"`),
		avenum.StringValueKey: []byte(`"y"`),
	}
	assert.Equal(t, []string{avenum.IntValueKey, avenum.StringValueKey}, doc.Keys())

	got, err := avenum.Decode(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, avenum.StringValue("y"), got)

	_, err = avenum.Decode(nil, nil)
	assert.ErrorAs(t, err, &avenum.ErrNoMatchingVariant{})
}

func Test_DocumentMarshalOrder(t *testing.T) {
	doc := avenum.Document{
		"zeta":                []byte(`1`),
		avenum.ArrayValueKey:  []byte(`[]`),
		"alpha":               []byte(`2`),
		avenum.IntValueKey:    []byte(`3`),
		avenum.NoValueKey:     []byte(`true`),
		avenum.StringValueKey: []byte(`"s"`),
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"noAvKey":true,"intAvKey":3,"stringAvKey":"s","doubleArrayAvKey":[],"alpha":2,"zeta":1}`, string(b))
}

func Test_DecodeLogsRejectedKeys(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := &avenum.Config{Logger: logger}

	got, err := avenum.Unmarshal([]byte(`{"intAvKey":"x","stringAvKey":"y"}`), cfg)
	require.NoError(t, err)
	assert.Equal(t, avenum.StringValue("y"), got)

	entries := hook.AllEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, logrus.DebugLevel, entries[0].Level)
	assert.Equal(t, "IntValue", entries[0].Data["tag"])
	assert.Equal(t, "intAvKey", entries[0].Data["key"])
	assert.Contains(t, entries[0].Data, logrus.ErrorKey)

	hook.Reset()
	_, err = avenum.Unmarshal([]byte(`{"intAvKey":"x"}`), cfg)
	require.Error(t, err)
	entries = hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "no variant matched document", hook.LastEntry().Message)
}

func Test_NestedVariantFields(t *testing.T) {
	type wrapper struct {
		A avenum.Variant            `json:"a"`
		B []avenum.Variant          `json:"b"`
		C map[string]avenum.Variant `json:"c"`
	}

	in := wrapper{
		A: avenum.IntValue(5),
		B: []avenum.Variant{avenum.NoValue{}, avenum.ArrayValue{1.25}},
		C: map[string]avenum.Variant{
			"x": avenum.CompositeValue{Int: 1, Text: "2", Record: avenum.Record{Name: "3", Count: 4}, Floats: []float64{5}},
		},
	}

	b, err := json.Marshal(in, avenum.JSONOptions(nil), json.Deterministic(true))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"a": {"intAvKey": 5},
		"b": [{"noAvKey": true}, {"doubleArrayAvKey": [1.25]}],
		"c": {"x": {"assortedAvKey": {"someInt": 1, "someString": "2", "someCodableValue": {"name": "3", "count": 4}, "someDoubleArrayValue": [5]}}}
	}`, string(b))

	var out wrapper
	require.NoError(t, json.Unmarshal(b, &out, avenum.JSONOptions(nil)))
	assert.Equal(t, in, out)
}

func Test_NestedNilVariant(t *testing.T) {
	type wrapper struct {
		V avenum.Variant `json:"v"`
	}

	b, err := json.Marshal(wrapper{}, avenum.JSONOptions(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":null}`, string(b))

	out := wrapper{V: avenum.IntValue(1)}
	require.NoError(t, json.Unmarshal(b, &out, avenum.JSONOptions(nil)))
	assert.Nil(t, out.V)
}

func Test_NestedNoMatch(t *testing.T) {
	type wrapper struct {
		V avenum.Variant `json:"v"`
	}

	var out wrapper
	err := json.Unmarshal([]byte(`{"v":{"intAvKey":"x"}}`), &out, avenum.JSONOptions(nil))
	assert.ErrorAs(t, err, &avenum.ErrNoMatchingVariant{})

	err = json.Unmarshal([]byte(`{"v":[1]}`), &out, avenum.JSONOptions(nil))
	assert.ErrorAs(t, err, &avenum.ErrInvalidDocument{})
}
