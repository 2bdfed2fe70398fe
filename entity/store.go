package entity

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/playingarts/go-libplayingarts/internal/notify"
)

var log = logging.Logger("entity")

// Change describes an effective mutation of one stored record. Fields lists
// the changed field names in sorted order. A nil Fields means the record was
// removed.
type Change struct {
	Key    Key
	Fields []string
}

// Store is a flat mapping from entity key to field values. It is safe for
// concurrent use. No lock is held while a caller waits on anything other than
// the store itself.
type Store struct {
	mu       sync.RWMutex
	policies map[string]TypePolicy
	records  map[Key]*record
	anonSeq  uint64

	hub *notify.Hub[Change]
}

type record struct {
	typeName string
	fields   map[string]any
}

// New creates a new empty entity store.
func New(options ...Option) (*Store, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	return &Store{
		policies: opts.policies,
		records:  make(map[Key]*record),
		hub:      notify.NewHub[Change](),
	}, nil
}

// Close ends all change subscriptions.
func (s *Store) Close() {
	s.hub.Close()
}

// Identify computes the stable key of an object from its type's key fields.
// Returns false if the object cannot be normalized.
func (s *Store) Identify(typeName string, fields map[string]any) (Key, bool) {
	return identify(typeName, s.policies[typeName], fields)
}

// ToReference builds a reference to the object of typeName identified by the
// given key field values. The referenced record need not exist.
func (s *Store) ToReference(typeName string, keyFields map[string]any) (Reference, bool) {
	key, ok := s.Identify(typeName, keyFields)
	if !ok {
		return Reference{}, false
	}
	return Reference{Ref: key}, true
}

// Merge identifies the object and shallow-merges fields onto any record
// already stored under its key, returning the key. Nested objects that can be
// identified are merged into their own records and replaced by references.
// An object that cannot be identified is stored under a new anonymous key.
func (s *Store) Merge(typeName string, fields map[string]any) Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := make(map[string]any, len(fields)+1)
	for name, val := range fields {
		norm[name] = s.normalizeLocked(val)
	}
	if typeName != "" {
		norm[TypenameField] = typeName
	}

	key, ok := identify(typeName, s.policies[typeName], norm)
	if !ok {
		s.anonSeq++
		key = Key(fmt.Sprintf("%s%d", anonPrefix, s.anonSeq))
		log.Debugw("Storing unidentifiable object", "type", typeName, "key", key)
	}
	s.mergeLocked(key, typeName, norm)
	return key
}

// Normalize walks a JSON-shaped value, merging every identifiable object into
// the store and returning a copy of the value in which those objects are
// replaced by references. Objects that cannot be identified stay inline.
func (s *Store) Normalize(value any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.normalizeLocked(value)
}

func (s *Store) normalizeLocked(value any) any {
	switch v := value.(type) {
	case map[string]any:
		// Children first, so that nested entities become references.
		norm := make(map[string]any, len(v))
		for name, val := range v {
			norm[name] = s.normalizeLocked(val)
		}
		typeName, _ := v[TypenameField].(string)
		key, ok := identify(typeName, s.policies[typeName], norm)
		if !ok {
			return norm
		}
		s.mergeLocked(key, typeName, norm)
		return Reference{Ref: key}
	case []any:
		norm := make([]any, len(v))
		for i, val := range v {
			norm[i] = s.normalizeLocked(val)
		}
		return norm
	default:
		return value
	}
}

// mergeLocked shallow-merges already normalized fields onto the record at key
// and publishes a change if anything differs.
func (s *Store) mergeLocked(key Key, typeName string, fields map[string]any) {
	rec, ok := s.records[key]
	if !ok {
		rec = &record{
			typeName: typeName,
			fields:   make(map[string]any, len(fields)),
		}
		s.records[key] = rec
	}

	var changed []string
	for name, val := range fields {
		old, exists := rec.fields[name]
		if exists && reflect.DeepEqual(old, val) {
			continue
		}
		rec.fields[name] = val
		changed = append(changed, name)
	}
	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	s.hub.Publish(string(key), Change{Key: key, Fields: changed})
}

// Read returns the stored value of one field. The boolean is false if the
// field was never written for key, which is distinct from a stored nil. A
// nullable field that was never written reads as nil.
func (s *Store) Read(key Key, field string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, false
	}
	return s.fieldLocked(rec, field)
}

func (s *Store) fieldLocked(rec *record, field string) (any, bool) {
	if val, ok := rec.fields[field]; ok {
		return val, true
	}
	for _, name := range s.policies[rec.typeName].Nullable {
		if name == field {
			return nil, true
		}
	}
	return nil, false
}

// Has reports whether a record is stored under key.
func (s *Store) Has(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Subscribe creates a channel that receives a Change whenever the record at
// key changes. Subscribing to the empty key receives changes for all records.
// Calling the returned cancel function ends the subscription.
func (s *Store) Subscribe(key Key) (<-chan Change, context.CancelFunc) {
	return s.hub.Subscribe(string(key))
}

// Reset removes all records, publishing a removal for each.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.records
	s.records = make(map[Key]*record)
	for key := range old {
		s.hub.Publish(string(key), Change{Key: key})
	}
}

// Extract returns a copy of all records, keyed by entity key. Field values
// that are references keep their Reference type.
func (s *Store) Extract() map[Key]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Key]map[string]any, len(s.records))
	for key, rec := range s.records {
		fields := make(map[string]any, len(rec.fields))
		for name, val := range rec.fields {
			fields[name] = val
		}
		out[key] = fields
	}
	return out
}

// Restore merges previously extracted records into the store. Objects of the
// form {"__ref": key}, as produced by encoding extracted records to JSON, are
// converted back into references.
func (s *Store) Restore(records map[Key]map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, fields := range records {
		typeName, _ := fields[TypenameField].(string)
		if typeName == "" {
			typeName = key.Typename()
		}
		restored := make(map[string]any, len(fields))
		for name, val := range fields {
			restored[name] = restoreRefs(val)
		}
		s.mergeLocked(key, typeName, restored)
	}
}

func restoreRefs(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if ref, ok := v["__ref"].(string); ok && len(v) == 1 {
			return Reference{Ref: Key(ref)}
		}
		out := make(map[string]any, len(v))
		for name, val := range v {
			out[name] = restoreRefs(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = restoreRefs(val)
		}
		return out
	default:
		return value
	}
}
