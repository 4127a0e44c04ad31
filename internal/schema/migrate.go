package schema

import (
	"encoding/json"
	"time"
)

// Document is a loosely-typed persisted record.
type Document map[string]interface{}

// Migration maps a document of version v onto version v+1.
type Migration func(Document) Document

// Table holds the migrations of one entity type keyed by source version.
type Table map[int]Migration

// Upgrade applies the migrations from version from up to version to.
// Versions below 1 are treated as 1. Documents at or above the target are
// returned unchanged.
func (t Table) Upgrade(doc Document, from, to int) Document {
	if from < 1 {
		from = 1
	}
	for v := from; v < to; v++ {
		if m, ok := t[v]; ok {
			doc = m(doc)
		}
	}
	return doc
}

// parse decodes raw JSON into a document. ok is false when the input is not a
// JSON object; the returned document is then empty.
func parse(raw []byte) (Document, bool) {
	doc := Document{}
	if len(raw) == 0 {
		return doc, false
	}
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return Document{}, false
	}
	return doc, true
}

func rename(doc Document, from, to string) {
	v, ok := doc[from]
	if !ok {
		return
	}
	if _, exists := doc[to]; !exists {
		doc[to] = v
	}
	delete(doc, from)
}

func defaultTo(doc Document, key string, value interface{}) {
	if v, ok := doc[key]; !ok || v == nil {
		doc[key] = value
	}
}

// millisToRFC3339 rewrites an epoch-millisecond field as an RFC 3339 string.
func millisToRFC3339(doc Document, key string) {
	if ms, ok := doc[key].(float64); ok {
		doc[key] = time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
	}
}

func str(doc Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func boolean(doc Document, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

func integer(doc Document, key string) int {
	switch v := doc[key].(type) {
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

// timestamp reads an RFC 3339 string or epoch milliseconds.
func timestamp(doc Document, key string) (time.Time, bool) {
	switch v := doc[key].(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case float64:
		return time.UnixMilli(int64(v)).UTC(), true
	default:
		return time.Time{}, false
	}
}

func stringList(doc Document, key string) []string {
	raw, _ := doc[key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func documents(doc Document, key string) []Document {
	raw, _ := doc[key].([]interface{})
	out := make([]Document, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, Document(m))
		}
	}
	return out
}

func (d Document) clone() Document {
	c := make(Document, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
