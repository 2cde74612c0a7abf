package schema

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Pair is one key/value entry of a Dict.
type Pair struct {
	Key   string
	Value any
}

// Dict is a map that remembers insertion order. Dumped instances are
// rendered as Dicts so field order survives filtering and serialization.
type Dict struct {
	pairs []Pair
	index map[string]int
}

func NewDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

// Set inserts or replaces a key, keeping the original position on replace.
func (d *Dict) Set(key string, value any) {
	if i, ok := d.index[key]; ok {
		d.pairs[i].Value = value
		return
	}
	d.index[key] = len(d.pairs)
	d.pairs = append(d.pairs, Pair{Key: key, Value: value})
}

func (d *Dict) Get(key string) (any, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.pairs[i].Value, true
}

// Delete removes a key. Positions of later entries shift down.
func (d *Dict) Delete(key string) {
	i, ok := d.index[key]
	if !ok {
		return
	}
	d.pairs = append(d.pairs[:i], d.pairs[i+1:]...)
	delete(d.index, key)
	for j := i; j < len(d.pairs); j++ {
		d.index[d.pairs[j].Key] = j
	}
}

func (d *Dict) Len() int { return len(d.pairs) }

// Pairs returns the entries in insertion order.
func (d *Dict) Pairs() []Pair {
	out := make([]Pair, len(d.pairs))
	copy(out, d.pairs)
	return out
}

func (d *Dict) AsMap() map[string]any {
	out := make(map[string]any, len(d.pairs))
	for _, p := range d.pairs {
		out[p.Key] = p.Value
	}
	return out
}

func (d *Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range d.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := gojson.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := gojson.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// BuiltinOptions control how ToBuiltins lowers values.
type BuiltinOptions struct {
	// Hook handles values ToBuiltins does not natively understand.
	Hook EncodeHook
	// ByAlias keys instance fields by their declared alias when set.
	ByAlias bool
}

// ToBuiltins lowers a validated value into JSON-safe builtins: Dicts for
// instances and maps, []any for sequences, strings for timestamps and UUIDs.
// Instances keep their schema field order; plain maps are sorted by key so
// output is deterministic.
func ToBuiltins(value any, opts BuiltinOptions) (any, error) {
	switch v := value.(type) {
	case nil, bool, string, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return float64(v), nil
	case gojson.Number:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case uuid.UUID:
		return v.String(), nil
	case *Instance:
		return instanceToDict(v, opts)
	case *Dict:
		out := NewDict()
		for _, p := range v.Pairs() {
			lowered, err := ToBuiltins(p.Value, opts)
			if err != nil {
				return nil, err
			}
			out.Set(p.Key, lowered)
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewDict()
		for _, k := range keys {
			lowered, err := ToBuiltins(v[k], opts)
			if err != nil {
				return nil, err
			}
			out.Set(k, lowered)
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			lowered, err := ToBuiltins(rv.Index(i).Interface(), opts)
			if err != nil {
				return nil, err
			}
			out[i] = lowered
		}
		return out, nil
	}

	if opts.Hook != nil {
		hooked, err := opts.Hook(value)
		if err != nil {
			return nil, err
		}
		return ToBuiltins(hooked, BuiltinOptions{ByAlias: opts.ByAlias})
	}
	return nil, fmt.Errorf("cannot serialize value of type %T", value)
}

func instanceToDict(inst *Instance, opts BuiltinOptions) (*Dict, error) {
	out := NewDict()
	for _, f := range inst.Schema.Fields() {
		raw, _ := inst.Get(f.Name)
		lowered, err := ToBuiltins(raw, opts)
		if err != nil {
			return nil, err
		}
		out.Set(f.Key(opts.ByAlias), lowered)
	}
	return out, nil
}
