package types

import (
	"encoding/json"
	"errors"
)

// Record is an opaque document keyed by a caller-supplied ID.
//
// The service interprets nothing beyond the id: all other fields are carried
// verbatim from insert to lookup. On the wire a Record is a flat JSON object
// with an "id" member alongside the payload fields.
type Record struct {
	// ID is the caller-supplied primary key, unique within the store.
	ID string

	// Fields holds every payload member other than "id", untouched.
	Fields map[string]any
}

// MarshalJSON flattens the record into a single JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		obj[k] = v
	}
	obj["id"] = r.ID
	return json.Marshal(obj)
}

// UnmarshalJSON splits the "id" member out of a flat JSON object and keeps
// the rest as opaque payload.
func (r *Record) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	id, ok := obj["id"].(string)
	if !ok || id == "" {
		return errors.New("record id is required")
	}
	delete(obj, "id")
	r.ID = id
	r.Fields = obj
	return nil
}
