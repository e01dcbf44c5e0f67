// Package yyp reads and edits GameMaker project descriptors (.yyp) and the
// per-resource .yy files. The files are JSON with trailing commas; they are
// held as an ordered tree so fields the engine adds survive a load/save cycle
// in their original order.
package yyp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind identifies the JSON type held by a Node.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Member is one key/value pair of an object node.
type Member struct {
	Key   string
	Value *Node
}

// Node is a JSON value. Objects keep their members in source order and
// numbers keep their source text.
type Node struct {
	Kind    Kind
	text    string
	boolean bool
	items   []*Node
	members []Member
}

// NewNull returns a JSON null.
func NewNull() *Node { return &Node{Kind: Null} }

func NewBool(v bool) *Node { return &Node{Kind: Bool, boolean: v} }

func NewString(v string) *Node { return &Node{Kind: String, text: v} }

func NewInt(v int64) *Node { return &Node{Kind: Number, text: strconv.FormatInt(v, 10)} }

func NewArray(items ...*Node) *Node { return &Node{Kind: Array, items: items} }

// NewObject builds an object whose members keep the given order.
func NewObject(members ...Member) *Node {
	return &Node{Kind: Object, members: members}
}

// Field is shorthand for building a Member.
func Field(key string, value *Node) Member {
	return Member{Key: key, Value: value}
}

// Get returns the value stored under key, or nil when n is not an object or
// the key is absent.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != Object {
		return nil
	}
	for _, m := range n.members {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// Set replaces the value under key in place, or appends a new member.
func (n *Node) Set(key string, value *Node) {
	if n == nil || n.Kind != Object {
		return
	}
	for i := range n.members {
		if n.members[i].Key == key {
			n.members[i].Value = value
			return
		}
	}
	n.members = append(n.members, Member{Key: key, Value: value})
}

// Members returns the object's members in order.
func (n *Node) Members() []Member {
	if n == nil || n.Kind != Object {
		return nil
	}
	return n.members
}

// Items returns the array's elements in order.
func (n *Node) Items() []*Node {
	if n == nil || n.Kind != Array {
		return nil
	}
	return n.items
}

// Len is the element count of an array or the member count of an object.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case Array:
		return len(n.items)
	case Object:
		return len(n.members)
	}
	return 0
}

// Append adds items to the end of an array node.
func (n *Node) Append(items ...*Node) {
	if n == nil || n.Kind != Array {
		return
	}
	n.items = append(n.items, items...)
}

// Filter keeps only the array elements for which keep returns true and
// reports how many were removed.
func (n *Node) Filter(keep func(*Node) bool) int {
	if n == nil || n.Kind != Array {
		return 0
	}
	kept := n.items[:0]
	for _, item := range n.items {
		if keep(item) {
			kept = append(kept, item)
		}
	}
	removed := len(n.items) - len(kept)
	for i := len(kept); i < len(n.items); i++ {
		n.items[i] = nil
	}
	n.items = kept
	return removed
}

// Text returns the value of a string node.
func (n *Node) Text() (string, bool) {
	if n == nil || n.Kind != String {
		return "", false
	}
	return n.text, true
}

// Int returns the value of a number node that holds an integer.
func (n *Node) Int() (int64, bool) {
	if n == nil || n.Kind != Number {
		return 0, false
	}
	v, err := strconv.ParseInt(n.text, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(n.text, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return v, true
}

// Boolean returns the value of a bool node.
func (n *Node) Boolean() (bool, bool) {
	if n == nil || n.Kind != Bool {
		return false, false
	}
	return n.boolean, true
}

// Path walks nested objects by key.
func (n *Node) Path(keys ...string) *Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Parse decodes strict JSON into a Node. Run StripTrailingCommas first for
// engine files.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("unexpected data after top-level value")
		}
		return nil, err
	}
	return root, nil
}

func parseValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch v := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(v), nil
	case json.Number:
		return &Node{Kind: Number, text: v.String()}, nil
	case string:
		return NewString(v), nil
	case json.Delim:
		switch v {
		case '[':
			arr := NewArray()
			for dec.More() {
				item, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, want string", keyTok)
				}
				value, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				obj.members = append(obj.members, Member{Key: key, Value: value})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// Marshal renders the tree with two-space indentation, members in order.
func (n *Node) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.write(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromValue converts any value encoding/json can marshal into a Node. Struct
// fields keep their declaration order.
func FromValue(v any) (*Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (n *Node) write(buf *bytes.Buffer, depth int) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.Kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(n.boolean))
	case Number:
		buf.WriteString(n.text)
	case String:
		return writeString(buf, n.text)
	case Array:
		if len(n.items) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range n.items {
			indent(buf, depth+1)
			if err := item.write(buf, depth+1); err != nil {
				return err
			}
			if i < len(n.items)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		indent(buf, depth)
		buf.WriteByte(']')
	case Object:
		if len(n.members) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i, m := range n.members {
			indent(buf, depth+1)
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := m.Value.write(buf, depth+1); err != nil {
				return err
			}
			if i < len(n.members)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		indent(buf, depth)
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown node kind %d", n.Kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func indent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}
