package profile

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeID(t *testing.T) {
	valid := []string{"openai-main", "parser_v2", "日本語", "a.b", "x..y"}
	for _, id := range valid {
		assert.True(t, SafeID(id), id)
	}

	invalid := []string{"", " ", " padded", ".", "..", "../etc", "..hidden", "a/b", `a\b`, "c:x", "tab\tid", "nul\x00"}
	for _, id := range invalid {
		assert.False(t, SafeID(id), "%q", id)
	}
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Parsers")
	require.True(t, ok)
	assert.Equal(t, KindParser, k)

	k, ok = ParseKind("providers")
	require.True(t, ok)
	assert.Equal(t, KindAPI, k)

	_, ok = ParseKind("widgets")
	assert.False(t, ok)
}

func TestIndex(t *testing.T) {
	idx := NewIndex(
		Entry{Kind: KindAPI, Doc: Document{"id": "api1"}},
		Entry{Kind: KindChunk, Doc: Document{"id": "c-line", "chunk_type": "line"}},
		Entry{Kind: KindChunk, Doc: Document{"id": "c-legacy", "options": map[string]any{"chunk_type": "legacy"}}},
		Entry{Kind: KindParser, Doc: Document{"type": "plain"}},
	)

	assert.True(t, idx.Has(KindAPI, "api1"))
	assert.False(t, idx.Has(KindPrompt, "api1"))
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"c-legacy", "c-line"}, idx.IDs(KindChunk))

	ct, ok := idx.ChunkType("c-line")
	require.True(t, ok)
	assert.Equal(t, "line", ct)
	ct, ok = idx.ChunkType("c-legacy")
	require.True(t, ok)
	assert.Equal(t, "legacy", ct)

	var zero Index
	assert.False(t, zero.Has(KindAPI, "api1"))
	assert.Empty(t, zero.IDs(KindAPI))
}

func TestIndexFromIDs(t *testing.T) {
	idx := IndexFromIDs(map[Kind][]string{KindPrompt: {"p1", "p2"}})
	assert.True(t, idx.Has(KindPrompt, "p2"))
	_, ok := idx.ChunkType("p1")
	assert.False(t, ok)
}

func TestValues(t *testing.T) {
	doc := Document{
		"id":      "  x ",
		"count":   json.Number("3"),
		"options": map[any]any{"rpm": 60, "flag": "true"},
	}

	assert.Equal(t, "x", ID(doc))
	assert.Equal(t, "3", Str(doc, "count"))

	v, ok := Value(doc, "rpm")
	require.True(t, ok)
	n, ok := Num(v)
	require.True(t, ok)
	assert.Equal(t, 60.0, n)

	v, _ = Value(doc, "flag")
	b, ok := Bool(v)
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = Num("12")
	assert.False(t, ok)
	assert.False(t, Finite(math.Inf(1)))
	assert.True(t, IsInteger(4))
	assert.False(t, IsInteger(4.5))

	list, ok := List([]string{"a", "b"})
	require.True(t, ok)
	assert.Len(t, list, 2)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	parsers := filepath.Join(dir, "parsers")
	require.NoError(t, os.MkdirAll(parsers, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(parsers, "tagged.yaml"), []byte(
		"id: tagged\ntype: tagged_line\noptions:\n  sort_by_id: true\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.json"), []byte(
		`{"kind": "pipeline", "id": "main", "provider": "api1"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	entries, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, KindPipeline, entries[0].Kind)
	assert.Equal(t, "main", ID(entries[0].Doc))

	assert.Equal(t, KindParser, entries[1].Kind)
	assert.Equal(t, "tagged_line", Str(entries[1].Doc, "type"))
	sortByID, ok := Bool(Options(entries[1].Doc)["sort_by_id"])
	assert.True(t, ok)
	assert.True(t, sortByID)
}

func TestLoadFile_UnknownKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "x"}`), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
