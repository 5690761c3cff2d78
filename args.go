package plcache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lmmx/plcache/internal/argenc"
)

// Value is one argument of a cached call. It is a tagged union over
// scalars, ordered sequences, insertion-ordered mappings, opaque tabular
// references, and a catch-all textual fallback. Each variant has a
// deterministic canonical encoding, so equal values always contribute
// identical text to the cache key.
type Value struct {
	kind kind

	b    bool
	i    int64
	f    float64
	s    string
	seq  []Value
	pair []Pair
}

// Pair is one named element of a mapping value or one keyword argument.
type Pair struct {
	Name  string
	Value Value
}

type kind uint8

const (
	kindBool kind = iota
	kindInt
	kindFloat
	kindString
	kindSeq
	kindMap
	kindTable
	kindOther
)

// Bool wraps a boolean scalar.
func Bool(v bool) Value { return Value{kind: kindBool, b: v} }

// Int wraps an integer scalar.
func Int(v int64) Value { return Value{kind: kindInt, i: v} }

// Float wraps a floating-point scalar.
func Float(v float64) Value { return Value{kind: kindFloat, f: v} }

// String wraps a string scalar.
func String(v string) Value { return Value{kind: kindString, s: v} }

// Seq wraps an ordered sequence; element order is significant.
func Seq(vs ...Value) Value { return Value{kind: kindSeq, seq: vs} }

// Map wraps a mapping; insertion order is preserved and significant.
func Map(pairs ...Pair) Value { return Value{kind: kindMap, pair: pairs} }

// TableRef stands in for a tabular argument. The token should be a cheap,
// content-independent fingerprint (schema and shape), never the table
// itself; engines such as memframe provide one. Passing the same token for
// different tables makes those calls share a cache entry.
func TableRef(token string) Value { return Value{kind: kindTable, s: token} }

// Raw wraps any value via its fmt "%v" rendering. It is the fallback for
// argument types without a dedicated variant; the rendering must itself be
// deterministic for caching to be sound.
func Raw(v any) Value { return Value{kind: kindOther, s: fmt.Sprintf("%v", v)} }

// AsBool returns the boolean scalar. ok is false for other variants.
func (v Value) AsBool() (b bool, ok bool) { return v.b, v.kind == kindBool }

// AsInt returns the integer scalar. ok is false for other variants.
func (v Value) AsInt() (i int64, ok bool) { return v.i, v.kind == kindInt }

// AsFloat returns the float scalar. ok is false for other variants.
func (v Value) AsFloat() (f float64, ok bool) { return v.f, v.kind == kindFloat }

// AsString returns the string scalar. ok is false for other variants.
func (v Value) AsString() (s string, ok bool) { return v.s, v.kind == kindString }

// Items returns the elements of a sequence. ok is false for other variants.
func (v Value) Items() (items []Value, ok bool) { return v.seq, v.kind == kindSeq }

// Pairs returns the entries of a mapping in insertion order. ok is false
// for other variants.
func (v Value) Pairs() (pairs []Pair, ok bool) { return v.pair, v.kind == kindMap }

// canonical renders the value's stable textual form, used verbatim for key
// derivation and (truncated, escaped) for readable path segments.
func (v Value) canonical() string {
	switch v.kind {
	case kindBool:
		return strconv.FormatBool(v.b)
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case kindString:
		return v.s
	case kindSeq:
		parts := make([]string, len(v.seq))
		for i, e := range v.seq {
			parts[i] = e.canonical()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case kindMap:
		parts := make([]string, len(v.pair))
		for i, p := range v.pair {
			parts[i] = p.Name + "=" + p.Value.canonical()
		}
		return "{" + strings.Join(parts, ",") + "}"
	case kindTable:
		return "<table:" + v.s + ">"
	default:
		return v.s
	}
}

// Args captures one call's arguments: positional values in call order plus
// keyword values by parameter name. Args are immutable once handed to a
// wrapped function call.
type Args struct {
	Positional []Value
	Keyword    []Pair
}

// NoArgs is the empty argument list.
var NoArgs = Args{}

// Positional builds an argument list from positional values only.
func Positional(vs ...Value) Args {
	return Args{Positional: vs}
}

// WithKeyword returns a copy of a with one keyword argument appended.
func (a Args) WithKeyword(name string, v Value) Args {
	kw := make([]Pair, len(a.Keyword), len(a.Keyword)+1)
	copy(kw, a.Keyword)
	a.Keyword = append(kw, Pair{Name: name, Value: v})
	return a
}

// labeled returns the call's arguments as name/canonical-text pairs:
// positional values labeled arg0, arg1, … in order, then keyword arguments
// in sorted name order so call-site ordering cannot change the result.
func (a Args) labeled() []Pair {
	out := make([]Pair, 0, len(a.Positional)+len(a.Keyword))
	for i, v := range a.Positional {
		out = append(out, Pair{Name: "arg" + strconv.Itoa(i), Value: v})
	}
	kw := make([]Pair, len(a.Keyword))
	copy(kw, a.Keyword)
	sort.SliceStable(kw, func(i, j int) bool { return kw[i].Name < kw[j].Name })
	return append(out, kw...)
}

// Canonical renders the full, untruncated argument text hashed into the
// cache key, e.g. "(arg0=5,n=6)".
func (a Args) Canonical() string {
	labeled := a.labeled()
	parts := make([]string, len(labeled))
	for i, p := range labeled {
		parts[i] = p.Name + "=" + p.Value.canonical()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// segments renders one truncated, escaped "name=value" segment per
// argument for use in readable directory names.
func (a Args) segments(maxLen int) []string {
	labeled := a.labeled()
	parts := make([]string, len(labeled))
	for i, p := range labeled {
		parts[i] = p.Name + "=" + argenc.Segment(p.Value.canonical(), maxLen)
	}
	return parts
}

const emptyArgsDir = "no_args"

// entryDirName joins the argument segments into the per-call directory
// name under the readable tree.
func (a Args) entryDirName(maxLen int) string {
	parts := a.segments(maxLen)
	if len(parts) == 0 {
		return emptyArgsDir
	}
	return strings.Join(parts, "_")
}
