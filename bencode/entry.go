// Package bencode implements a self-describing bencoded value type.
//
// Unlike struct-tag codecs, an Entry keeps the exact shape of a bencoded
// document and can hold a preformatted region that is written back verbatim,
// which keeps hashes over that region stable across a decode/encode cycle.
package bencode

import "sort"

// Kind identifies the type held by an Entry.
type Kind int

const (
	Undefined Kind = iota
	Integer
	String
	List
	Dict
	Preformatted
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case String:
		return "string"
	case List:
		return "list"
	case Dict:
		return "dict"
	case Preformatted:
		return "preformatted"
	default:
		return "undefined"
	}
}

// Entry is a single bencoded value: an integer, a byte string, a list, a
// dictionary with bytewise-sorted keys, or a preformatted region.
type Entry struct {
	kind    Kind
	integer int64
	str     string
	list    []*Entry
	dict    map[string]*Entry
	pre     []byte
}

// Int returns a new integer Entry.
func Int(v int64) *Entry { return &Entry{kind: Integer, integer: v} }

// Str returns a new string Entry.
func Str(s string) *Entry { return &Entry{kind: String, str: s} }

// Bytes returns a new string Entry holding a copy of b.
func Bytes(b []byte) *Entry { return &Entry{kind: String, str: string(b)} }

// NewList returns a new list Entry containing the given items.
func NewList(items ...*Entry) *Entry { return &Entry{kind: List, list: items} }

// NewDict returns a new empty dictionary Entry.
func NewDict() *Entry { return &Entry{kind: Dict, dict: make(map[string]*Entry)} }

// NewPreformatted returns an Entry whose bytes are emitted verbatim on encode.
// The bytes must already be valid bencoding.
func NewPreformatted(b []byte) *Entry {
	p := make([]byte, len(b))
	copy(p, b)
	return &Entry{kind: Preformatted, pre: p}
}

// Kind returns the kind of the value held by e.
func (e *Entry) Kind() Kind {
	if e == nil {
		return Undefined
	}
	return e.kind
}

// Int64 returns the integer value. It is zero for other kinds.
func (e *Entry) Int64() int64 { return e.integer }

// Str returns the string value. It is empty for other kinds.
func (e *Entry) Str() string { return e.str }

// Preformatted returns the verbatim bytes of a preformatted Entry.
func (e *Entry) Preformatted() []byte { return e.pre }

// List returns the items of a list Entry.
func (e *Entry) List() []*Entry { return e.list }

// Append adds an item to a list Entry.
func (e *Entry) Append(item *Entry) { e.list = append(e.list, item) }

// Len returns the number of items in a list or keys in a dict.
func (e *Entry) Len() int {
	if e == nil {
		return 0
	}
	switch e.kind {
	case List:
		return len(e.list)
	case Dict:
		return len(e.dict)
	default:
		return 0
	}
}

// Set stores val under key in a dict Entry.
func (e *Entry) Set(key string, val *Entry) {
	if e.dict == nil {
		e.dict = make(map[string]*Entry)
		e.kind = Dict
	}
	e.dict[key] = val
}

// Get returns the value under key in a dict Entry, or nil.
func (e *Entry) Get(key string) *Entry {
	if e == nil || e.kind != Dict {
		return nil
	}
	return e.dict[key]
}

// Delete removes key from a dict Entry.
func (e *Entry) Delete(key string) {
	if e != nil && e.kind == Dict {
		delete(e.dict, key)
	}
}

// Keys returns the dict keys sorted as byte strings, the serialization order.
func (e *Entry) Keys() []string {
	if e == nil || e.kind != Dict {
		return nil
	}
	keys := make([]string, 0, len(e.dict))
	for k := range e.dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
