package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ParseJSON decodes a JSON document keeping object keys in document order.
func ParseJSON(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Absent(), fmt.Errorf("invalid json")
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.Number:
		return Number(r.Num)
	case gjson.String:
		return String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			items := []Value{}
			r.ForEach(func(_, item gjson.Result) bool {
				items = append(items, fromResult(item))
				return true
			})
			return List(items...)
		}
		m := NewMap()
		r.ForEach(func(key, item gjson.Result) bool {
			m.Set(key.Str, fromResult(item))
			return true
		})
		return Object(m)
	default:
		return Null()
	}
}

// MarshalJSON encodes the value without HTML escaping, maps in key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	if err := v.writeJSON(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Indent encodes v as JSON with one indent string per nesting level. Every
// array element and object member goes on its own line, even for an empty
// indent.
func Indent(v Value, indent string) (string, error) {
	var compact bytes.Buffer
	if err := v.writeJSON(&compact); err != nil {
		return "", err
	}
	out := pretty.PrettyOptions(compact.Bytes(), &pretty.Options{Indent: indent})
	return string(bytes.TrimSuffix(out, []byte("\n"))), nil
}

func (v Value) writeJSON(b *bytes.Buffer) error {
	switch v.kind {
	case KindBool:
		if v.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			b.WriteString("null")
			return nil
		}
		b.WriteString(FormatNumber(v.n))
	case KindString:
		return writeJSONString(b, v.s)
	case KindList:
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := item.writeJSON(b); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, k := range v.m.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeJSONString(b, k); err != nil {
				return err
			}
			b.WriteByte(':')
			if err := v.m.vals[k].writeJSON(b); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		b.WriteString("null")
	}
	return nil
}

func writeJSONString(b *bytes.Buffer, s string) error {
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode string: %w", err)
	}
	// Encode terminates every value with a newline
	b.Truncate(b.Len() - 1)
	return nil
}
