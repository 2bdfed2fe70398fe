package entity

// Fragment selects the fields to read from an object. Each entry maps a field
// name to the selection for that field's value. A nil selection reads the
// value as stored; a non-nil selection is applied to the object, reference, or
// list of either, found in the field.
type Fragment map[string]Fragment

// ReadFragment reads the fields selected by frag from the record that ref
// points to. Returns false if the record is absent, or if any selected field,
// at any depth, is missing or points to an absent record.
func (s *Store) ReadFragment(ref Reference, frag Fragment) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readRecordLocked(ref.Ref, frag)
}

// Denormalize resolves the references in value using selection frag. The
// value is typically a normalized query result: a reference, a list of
// references, or inline data containing references. Returns false on any miss.
func (s *Store) Denormalize(value any, frag Fragment) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(value, frag)
}

func (s *Store) readRecordLocked(key Key, frag Fragment) (map[string]any, bool) {
	rec, ok := s.records[key]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(frag)+1)
	if rec.typeName != "" {
		out[TypenameField] = rec.typeName
	}
	for name, sub := range frag {
		val, ok := s.fieldLocked(rec, name)
		if !ok {
			return nil, false
		}
		resolved, ok := s.resolveLocked(val, sub)
		if !ok {
			return nil, false
		}
		out[name] = resolved
	}
	return out, true
}

func (s *Store) resolveLocked(value any, frag Fragment) (any, bool) {
	switch v := value.(type) {
	case Reference:
		if frag == nil {
			rec, ok := s.records[v.Ref]
			if !ok {
				return nil, false
			}
			out := make(map[string]any, len(rec.fields))
			for name, val := range rec.fields {
				out[name] = val
			}
			return out, true
		}
		return s.readRecordLocked(v.Ref, frag)
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			resolved, ok := s.resolveLocked(val, frag)
			if !ok {
				return nil, false
			}
			out[i] = resolved
		}
		return out, true
	case map[string]any:
		if frag == nil {
			return v, true
		}
		out := make(map[string]any, len(frag)+1)
		if tn, ok := v[TypenameField]; ok {
			out[TypenameField] = tn
		}
		for name, sub := range frag {
			val, ok := v[name]
			if !ok {
				return nil, false
			}
			resolved, ok := s.resolveLocked(val, sub)
			if !ok {
				return nil, false
			}
			out[name] = resolved
		}
		return out, true
	default:
		return value, true
	}
}
