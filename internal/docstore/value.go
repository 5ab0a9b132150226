// Package docstore models the document store that holds shift documentation:
// an ordered, nested document value type, typed record paths, and the
// post-commit event dispatch that drives enforcement.
//
// Documents are a tagged variant (null | string | number | bool | document |
// list) rather than map[string]any. Field order is preserved through decode,
// traversal, and encode, which keeps scan output deterministic.
package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind discriminates the Value variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDoc
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDoc:
		return "document"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is one node in a document tree. Exactly the field selected by Kind
// is meaningful; the zero Value is null.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	Doc  *Document
	List []Value
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// String returns a string scalar value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a numeric scalar value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Bool returns a boolean scalar value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// DocValue wraps a nested document.
func DocValue(d *Document) Value { return Value{Kind: KindDoc, Doc: d} }

// ListValue wraps an ordered list.
func ListValue(vs ...Value) Value { return Value{Kind: KindList, List: vs} }

// Clone deep-copies the value.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindDoc:
		return Value{Kind: KindDoc, Doc: v.Doc.Clone()}
	case KindList:
		list := make([]Value, len(v.List))
		for i, e := range v.List {
			list[i] = e.Clone()
		}
		return Value{Kind: KindList, List: list}
	default:
		return v
	}
}

// Equal reports deep equality, including field order for documents.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindBool:
		return v.Bool == o.Bool
	case KindDoc:
		return v.Doc.Equal(o.Doc)
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Field is one named slot in a Document.
type Field struct {
	Name  string
	Value Value
}

// Document is an ordered collection of named fields. Set keeps the first
// insertion position on overwrite, so traversal order is stable across
// updates to existing fields.
type Document struct {
	fields []Field
}

// NewDocument returns an empty document.
func NewDocument() *Document { return &Document{} }

// Set writes a field, replacing the value in place when the name exists.
// Returns the document for chaining in construction code and tests.
func (d *Document) Set(name string, v Value) *Document {
	for i := range d.fields {
		if d.fields[i].Name == name {
			d.fields[i].Value = v
			return d
		}
	}
	d.fields = append(d.fields, Field{Name: name, Value: v})
	return d
}

// Get returns the value for name and whether the field exists.
func (d *Document) Get(name string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	for _, f := range d.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// GetString returns the string scalar at name, or "" when absent or not a
// string.
func (d *Document) GetString(name string) string {
	v, ok := d.Get(name)
	if !ok || v.Kind != KindString {
		return ""
	}
	return v.Str
}

// Delete removes a field if present.
func (d *Document) Delete(name string) {
	for i := range d.fields {
		if d.fields[i].Name == name {
			d.fields = append(d.fields[:i], d.fields[i+1:]...)
			return
		}
	}
}

// Fields returns the fields in insertion order. Callers must not mutate the
// returned slice.
func (d *Document) Fields() []Field {
	if d == nil {
		return nil
	}
	return d.fields
}

// Len returns the number of fields.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{fields: make([]Field, len(d.fields))}
	for i, f := range d.fields {
		c.fields[i] = Field{Name: f.Name, Value: f.Value.Clone()}
	}
	return c
}

// Equal reports deep equality, including field order.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d.Len() == 0 && o.Len() == 0
	}
	if len(d.fields) != len(o.fields) {
		return false
	}
	for i := range d.fields {
		if d.fields[i].Name != o.fields[i].Name {
			return false
		}
		if !d.fields[i].Value.Equal(o.fields[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the document with fields in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		vb, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the selected variant.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindDoc:
		return json.Marshal(v.Doc)
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.List {
			if i > 0 {
				buf.WriteByte(',')
			}
			eb, err := json.Marshal(e)
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("docstore: marshal unknown kind %d", v.Kind)
}

// UnmarshalJSON decodes an object into the document, preserving key order.
// encoding/json's map decoding loses order, so this walks the token stream.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("docstore: document must be a JSON object, got %v", tok)
	}
	doc, err := decodeDocBody(dec)
	if err != nil {
		return err
	}
	d.fields = doc.fields
	return nil
}

// DecodeDocument parses a JSON object into an order-preserving Document.
func DecodeDocument(data []byte) (*Document, error) {
	d := NewDocument()
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return d, nil
}

// decodeDocBody consumes fields up to and including the closing brace.
func decodeDocBody(dec *json.Decoder) (*Document, error) {
	doc := NewDocument()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("docstore: object key is not a string: %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return doc, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			doc, err := decodeDocBody(dec)
			if err != nil {
				return Value{}, err
			}
			return DocValue(doc), nil
		case '[':
			var list []Value
			for dec.More() {
				e, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				list = append(list, e)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return Value{}, err
			}
			return Value{Kind: KindList, List: list}, nil
		default:
			return Value{}, fmt.Errorf("docstore: unexpected delimiter %v", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return Value{}, fmt.Errorf("docstore: parse number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("docstore: unexpected token %v", tok)
}
