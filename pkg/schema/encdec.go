package schema

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"
)

// Encoder serializes validated values to JSON. It lowers values through
// ToBuiltins first so instances keep field order and hooks apply.
type Encoder struct {
	opts BuiltinOptions
}

func NewEncoder(opts BuiltinOptions) *Encoder {
	return &Encoder{opts: opts}
}

func (e *Encoder) Encode(value any) ([]byte, error) {
	lowered, err := ToBuiltins(value, e.opts)
	if err != nil {
		return nil, err
	}
	return gojson.Marshal(lowered)
}

// Decoder parses JSON and validates the result against a schema type.
type Decoder struct {
	typ  Type
	opts ConvertOptions
}

func NewDecoder(typ Type, opts ConvertOptions) *Decoder {
	return &Decoder{typ: typ, opts: opts}
}

// Decode parses data as a single JSON document and converts it into the
// decoder's type. Malformed JSON and trailing garbage yield a DecodeError;
// well-formed JSON of the wrong shape yields a ValidationError.
func (d *Decoder) Decode(data []byte) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, decodeErr(err)
	}
	if err := checkTrailing(dec); err != nil {
		return nil, err
	}
	return Convert(raw, d.typ, d.opts)
}

func checkTrailing(dec *gojson.Decoder) error {
	var extra any
	err := dec.Decode(&extra)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return decodeErr(err)
	}
	return &DecodeError{Msg: "unexpected data after JSON document"}
}

// EncodeJSON is a one-shot helper for values that need no hooks.
func EncodeJSON(value any) ([]byte, error) {
	return NewEncoder(BuiltinOptions{}).Encode(value)
}

// DecodeJSON is a one-shot helper that parses and validates in one step.
func DecodeJSON(data []byte, typ Type) (any, error) {
	return NewDecoder(typ, ConvertOptions{}).Decode(data)
}
