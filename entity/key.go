package entity

import (
	"encoding/json"
	"errors"
	"strings"
)

// TypenameField is the field naming the GraphQL type of an object.
const TypenameField = "__typename"

const anonPrefix = "$anon:"

// Key is the stable identity of a stored record.
type Key string

// Typename returns the type part of the key, or "" for anonymous keys.
func (k Key) Typename() string {
	if k.Anonymous() {
		return ""
	}
	s := string(k)
	if i := strings.IndexByte(s, ':'); i != -1 {
		return s[:i]
	}
	return ""
}

// Anonymous reports whether the key was generated for an object that could not
// be identified by key fields.
func (k Key) Anonymous() bool {
	return strings.HasPrefix(string(k), anonPrefix)
}

// Reference stands in for a normalized object wherever it was embedded.
type Reference struct {
	Ref Key
}

func (r Reference) String() string {
	return string(r.Ref)
}

type refJSON struct {
	Ref Key `json:"__ref"`
}

func (r Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(refJSON{Ref: r.Ref})
}

func (r *Reference) UnmarshalJSON(data []byte) error {
	var rj refJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}
	if rj.Ref == "" {
		return errors.New("missing __ref")
	}
	r.Ref = rj.Ref
	return nil
}

// identify computes the key for an object of typeName using the key fields of
// policy. Returns false if the type declares no key fields, if any key field
// is missing or null, or if a key field value cannot be encoded.
func identify(typeName string, policy TypePolicy, fields map[string]any) (Key, bool) {
	if typeName == "" || len(policy.KeyFields) == 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString(typeName)
	b.WriteString(":{")
	for i, name := range policy.KeyFields {
		val, ok := fields[name]
		if !ok || val == nil {
			return "", false
		}
		if _, isRef := val.(Reference); isRef {
			return "", false
		}
		nameJSON, err := json.Marshal(name)
		if err != nil {
			return "", false
		}
		valJSON, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		if i != 0 {
			b.WriteByte(',')
		}
		b.Write(nameJSON)
		b.WriteByte(':')
		b.Write(valJSON)
	}
	b.WriteByte('}')
	return Key(b.String()), true
}
