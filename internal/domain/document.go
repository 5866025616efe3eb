package domain

// Document is a schemaless record as held by the buffer and the export
// pipeline. Values are scalars, []any sequences, or nested map[string]any.
type Document = map[string]any

// DocumentID returns the document's "id" field if present.
func DocumentID(doc Document) (string, bool) {
	v, ok := doc["id"]
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
