package plcache

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Ident names a wrapped function: the module (package path) it lives in
// and its function name. Both parts appear in the readable tree and feed
// the default cache key.
type Ident struct {
	Module   string
	Function string
}

// String returns the fully qualified "module.function" form.
func (id Ident) String() string {
	if id.Module == "" {
		return id.Function
	}
	return id.Module + "." + id.Function
}

// KeyFunc derives a cache key from a function identity and its arguments.
// A custom KeyFunc fully replaces the default derivation; its result is
// used verbatim, so it must be deterministic across processes and safe as
// a filename.
type KeyFunc func(id Ident, args Args) string

// defaultKey hashes the qualified identity plus the canonical argument
// text into a fixed-length hex key. Equal calls yield equal keys on any
// machine; distinct keys never collide short of a SHA-256 collision, which
// the cache deliberately treats as a hit.
func defaultKey(id Ident, args Args) string {
	return digest.SHA256.FromString(id.String() + args.Canonical()).Encoded()
}

// FuncIdent derives an Ident from a function value using its runtime
// symbol name. Methods and closures include their receiver or ".funcN"
// suffix; pass an explicit Ident to Wrap when that is not wanted.
func FuncIdent(fn any) Ident {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return Ident{Function: fmt.Sprintf("%T", fn)}
	}
	name := runtime.FuncForPC(v.Pointer()).Name()
	if i := strings.LastIndex(name, "."); i >= 0 {
		return Ident{Module: name[:i], Function: name[i+1:]}
	}
	return Ident{Function: name}
}
