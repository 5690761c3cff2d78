package plcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyDeterministic(t *testing.T) {
	t.Parallel()

	id := Ident{Module: "etl", Function: "buildTable"}
	args := Positional(Int(5)).WithKeyword("mode", String("full"))

	k1 := defaultKey(id, args)
	k2 := defaultKey(id, args)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)

	// The key is plain SHA-256 over identity plus canonical args, so any
	// process on any machine derives the same value.
	sum := sha256.Sum256([]byte(id.String() + args.Canonical()))
	assert.Equal(t, hex.EncodeToString(sum[:]), k1)
}

func TestDefaultKeySensitivity(t *testing.T) {
	t.Parallel()

	id := Ident{Module: "etl", Function: "buildTable"}
	base := defaultKey(id, Positional(Int(5)))

	assert.NotEqual(t, base, defaultKey(id, Positional(Int(6))))
	assert.NotEqual(t, base, defaultKey(Ident{Module: "etl", Function: "other"}, Positional(Int(5))))
	assert.NotEqual(t, base, defaultKey(id, Positional(String("5"))),
		"int and string arguments must not collide")
}

func TestDefaultKeyUnaffectedByTruncation(t *testing.T) {
	t.Parallel()

	id := Ident{Module: "etl", Function: "buildTable"}
	prefix := strings.Repeat("a", 100)
	one := Positional(String(prefix + "one"))
	two := Positional(String(prefix + "two"))

	// Same readable segment after truncation, distinct authoritative keys.
	assert.Equal(t, one.entryDirName(50), two.entryDirName(50))
	assert.NotEqual(t, defaultKey(id, one), defaultKey(id, two))
}

func TestIdentString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "etl.build", Ident{Module: "etl", Function: "build"}.String())
	assert.Equal(t, "build", Ident{Function: "build"}.String())
}

func fixtureForIdent() {}

func TestFuncIdent(t *testing.T) {
	t.Parallel()

	id := FuncIdent(fixtureForIdent)
	assert.Equal(t, "github.com/lmmx/plcache", id.Module)
	assert.Equal(t, "fixtureForIdent", id.Function)

	require.NotPanics(t, func() { FuncIdent(42) })
	assert.Equal(t, "int", FuncIdent(42).Function)
}
