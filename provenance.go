package propbind

import (
	"reflect"
	"sync"
)

// Provenance records where each bound field's value came from.
type Provenance struct {
	Fields []FieldProvenance
}

// FieldProvenance describes where a field's value came from.
type FieldProvenance struct {
	FieldPath  string // Dot notation (e.g., "Database.Host")
	KeyPath    string // Property key as stored in the layer (e.g., "app.database.host")
	SourceName string // Layer name (e.g., "env", "file:app.yaml", "default")
	Secret     bool   // Whether field is secret
}

// Lookup returns the provenance of a single field.
func (p *Provenance) Lookup(fieldPath string) (FieldProvenance, bool) {
	if p == nil {
		return FieldProvenance{}, false
	}
	for _, f := range p.Fields {
		if f.FieldPath == fieldPath {
			return f, true
		}
	}
	return FieldProvenance{}, false
}

// provenanceStore is keyed by target pointer and keeps every target it holds
// reachable until ForgetProvenance is called for it.
var provenanceStore sync.Map

// GetProvenance returns the provenance recorded by the last successful struct
// bind into target. A failed bind clears it. Thread-safe.
func GetProvenance(target any) (*Provenance, bool) {
	if !isPointer(target) {
		return nil, false
	}

	value, ok := provenanceStore.Load(target)
	if !ok {
		return nil, false
	}

	prov, ok := value.(*Provenance)
	return prov, ok
}

// ForgetProvenance drops the provenance recorded for target. Callers that bind
// fresh targets repeatedly (per request, in a loop) must call it once a target
// is no longer needed, or the store keeps every target alive.
func ForgetProvenance(target any) {
	if isPointer(target) {
		provenanceStore.Delete(target)
	}
}

func storeProvenance(target any, prov *Provenance) {
	if isPointer(target) && prov != nil {
		provenanceStore.Store(target, prov)
	}
}

func isPointer(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && !rv.IsNil()
}
