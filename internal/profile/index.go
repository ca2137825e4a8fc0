package profile

import "sort"

// Entry is one decoded profile together with its kind and origin.
type Entry struct {
	Kind Kind
	Path string
	Doc  Document
}

// Index is a read-only snapshot of the profile ids known per kind. It also
// records the chunk_type of every chunk profile so pipeline rules can be
// checked without the referenced documents. The zero Index is empty.
type Index struct {
	ids        map[Kind]map[string]struct{}
	chunkTypes map[string]string
}

// NewIndex builds an index over entries. Entries without an id are skipped.
func NewIndex(entries ...Entry) Index {
	idx := Index{
		ids:        make(map[Kind]map[string]struct{}, len(Kinds)),
		chunkTypes: make(map[string]string),
	}
	for _, e := range entries {
		id := ID(e.Doc)
		if id == "" {
			continue
		}
		idx.add(e.Kind, id)
		if e.Kind == KindChunk {
			idx.chunkTypes[id] = ChunkType(e.Doc)
		}
	}
	return idx
}

// IndexFromIDs builds an index from bare id lists, for callers that only
// know which profiles exist.
func IndexFromIDs(ids map[Kind][]string) Index {
	idx := Index{
		ids:        make(map[Kind]map[string]struct{}, len(ids)),
		chunkTypes: make(map[string]string),
	}
	for kind, list := range ids {
		for _, id := range list {
			idx.add(kind, id)
		}
	}
	return idx
}

func (x Index) add(kind Kind, id string) {
	set, ok := x.ids[kind]
	if !ok {
		set = make(map[string]struct{})
		x.ids[kind] = set
	}
	set[id] = struct{}{}
}

// Has reports whether a profile of kind with id exists.
func (x Index) Has(kind Kind, id string) bool {
	_, ok := x.ids[kind][id]
	return ok
}

// ChunkType returns the chunk_type recorded for chunk profile id.
func (x Index) ChunkType(id string) (string, bool) {
	t, ok := x.chunkTypes[id]
	return t, ok && t != ""
}

// IDs returns the sorted ids of kind.
func (x Index) IDs(kind Kind) []string {
	out := make([]string, 0, len(x.ids[kind]))
	for id := range x.ids[kind] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of indexed profiles.
func (x Index) Len() int {
	n := 0
	for _, set := range x.ids {
		n += len(set)
	}
	return n
}

// ChunkType returns the chunk_type of a chunk profile document, read from
// the top level or from options.
func ChunkType(doc Document) string {
	return Str(doc, "chunk_type")
}
