package propbind

import (
	"fmt"
	"reflect"
	"time"

	"github.com/Azhovan/propbind/internal/normalize"
)

var (
	timeType       = reflect.TypeOf(time.Time{})
	optionalMarker = reflect.TypeOf((*interface{ optionalMarker() })(nil)).Elem()
)

// ReflectEngine is the default Engine. It binds map targets verbatim and
// struct targets field by field using reflection and struct tags.
//
// Supported targets: *Properties, map[string]any, *map[string]any,
// map[string]string, *map[string]string and pointers to structs.
type ReflectEngine struct {
	// Strict reports keys under the namespace that no struct field consumes.
	Strict bool

	// TagName is the struct tag holding binding directives. Default: "prop".
	TagName string
}

// Bind implements Engine.
func (e ReflectEngine) Bind(sources *PropertySources, namespace string, target any) error {
	if sources == nil {
		return ErrNilSources
	}
	if target == nil {
		return ErrNilTarget
	}

	entries := scope(sources, namespace)

	switch t := target.(type) {
	case *Properties:
		if t == nil {
			return ErrNilTarget
		}
		for _, entry := range entries {
			t.SetIfAbsent(entry.key, entry.value)
		}
		return nil

	case map[string]any:
		if t == nil {
			return ErrNilTarget
		}
		bindAnyMap(t, entries)
		return nil

	case *map[string]any:
		if t == nil {
			return ErrNilTarget
		}
		if *t == nil {
			*t = make(map[string]any, len(entries))
		}
		bindAnyMap(*t, entries)
		return nil

	case map[string]string:
		if t == nil {
			return ErrNilTarget
		}
		return bindStringMap(t, entries)

	case *map[string]string:
		if t == nil {
			return ErrNilTarget
		}
		if *t == nil {
			*t = make(map[string]string, len(entries))
		}
		return bindStringMap(*t, entries)
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T (want a map or a pointer to struct)", ErrUnsupportedTarget, target)
	}

	tagName := e.TagName
	if tagName == "" {
		tagName = DefaultTagName
	}

	b := newStructBinder(entries, normalize.CleanPrefix(namespace), tagName)
	b.bindStruct(rv.Elem(), "", "")

	allErrors := b.errors
	if e.Strict {
		allErrors = append(allErrors, b.unknownKeys()...)
	}
	allErrors = append(allErrors, validateStruct(rv.Elem(), tagName, b.bound)...)

	if v, ok := target.(Validator); ok {
		if err := v.Validate(); err != nil {
			valErr, isValErr := err.(*ValidationError)
			if !isValErr {
				ForgetProvenance(target)
				return fmt.Errorf("validate: %w", err)
			}
			allErrors = append(allErrors, valErr.FieldErrors...)
		}
	}

	if len(allErrors) > 0 {
		ForgetProvenance(target)
		return &ValidationError{FieldErrors: allErrors}
	}

	storeProvenance(target, &Provenance{Fields: b.provenance})
	return nil
}

func bindAnyMap(m map[string]any, entries []scopedEntry) {
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.key] {
			continue
		}
		seen[entry.key] = true
		m[entry.key] = entry.value
	}
}

func bindStringMap(m map[string]string, entries []scopedEntry) error {
	var fieldErrors []FieldError
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.key] {
			continue
		}
		seen[entry.key] = true

		s, err := scalarString(entry.value)
		if err != nil {
			fieldErrors = append(fieldErrors, FieldError{
				FieldPath: entry.key,
				Code:      ErrCodeInvalidType,
				Message:   err.Error(),
			})
			continue
		}
		m[entry.key] = s
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{FieldErrors: fieldErrors}
	}
	return nil
}

// structBinder holds the state of a single struct bind.
type structBinder struct {
	entries    []scopedEntry
	index      map[string]int  // Canonical key -> first entry holding it
	consumed   map[string]bool // Canonical keys read by some field
	namespace  string
	tagName    string
	errors     []FieldError
	provenance []FieldProvenance
	bound      *boundFields
}

func newStructBinder(entries []scopedEntry, namespace, tagName string) *structBinder {
	index := make(map[string]int, len(entries))
	for i, entry := range entries {
		canon := normalize.Canonical(entry.key)
		if _, ok := index[canon]; !ok {
			index[canon] = i
		}
	}

	return &structBinder{
		entries:   entries,
		index:     index,
		consumed:  make(map[string]bool),
		namespace: namespace,
		tagName:   tagName,
		bound:     newBoundFields(),
	}
}

// lookup finds the entry for keyPath and marks it consumed.
func (b *structBinder) lookup(keyPath string) (scopedEntry, bool) {
	canon := normalize.Canonical(keyPath)
	i, ok := b.index[canon]
	if !ok {
		return scopedEntry{}, false
	}
	b.consumed[canon] = true
	return b.entries[i], true
}

// under returns the first entry for every key nested below keyPath, with keyPath stripped.
func (b *structBinder) under(keyPath string) []scopedEntry {
	var out []scopedEntry
	seen := make(map[string]bool)
	for _, entry := range b.entries {
		rest, ok := normalize.StripPrefix(entry.key, keyPath)
		if !ok {
			continue
		}
		canon := normalize.Canonical(rest)
		if seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, scopedEntry{key: rest, fullKey: entry.fullKey, value: entry.value, origin: entry.origin})
	}
	return out
}

func (b *structBinder) hasUnder(keyPath string) bool {
	for _, entry := range b.entries {
		if _, ok := normalize.StripPrefix(entry.key, keyPath); ok {
			return true
		}
	}
	return false
}

func (b *structBinder) bindStruct(v reflect.Value, keyPrefix, fieldPrefix string) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		tags := parseTag(field.Tag.Get(b.tagName))
		if tags.skip {
			continue
		}

		keyPath := normalize.ApplyPrefix(keyPrefix, tags.keySegment(field.Name))
		fieldPath := normalize.ApplyPrefix(fieldPrefix, field.Name)

		switch {
		case isOptionalType(field.Type):
			b.bindOptional(fieldValue, keyPath, fieldPath, tags)

		case isNestedStruct(field.Type):
			b.bindStruct(fieldValue, keyPath, fieldPath)

		case field.Type.Kind() == reflect.Ptr && isNestedStruct(field.Type.Elem()):
			// Allocate nested pointers only when something binds into them
			if !b.hasUnder(keyPath) {
				continue
			}
			if fieldValue.IsNil() {
				fieldValue.Set(reflect.New(field.Type.Elem()))
			}
			b.bindStruct(fieldValue.Elem(), keyPath, fieldPath)

		case field.Type.Kind() == reflect.Map:
			b.bindMapField(fieldValue, keyPath, fieldPath, tags)

		default:
			b.bindValue(fieldValue, keyPath, fieldPath, tags)
		}
	}
}

// resolve returns the raw value for keyPath, falling back to the tag default.
func (b *structBinder) resolve(keyPath string, tags tagConfig) (raw any, fullKey, source string, found bool) {
	if entry, ok := b.lookup(keyPath); ok {
		return entry.value, entry.fullKey, entry.origin, true
	}
	if tags.hasDefault {
		return tags.defValue, normalize.ApplyPrefix(b.namespace, keyPath), "default", true
	}
	return nil, "", "", false
}

func (b *structBinder) bindValue(fieldValue reflect.Value, keyPath, fieldPath string, tags tagConfig) {
	raw, fullKey, source, found := b.resolve(keyPath, tags)
	if !found {
		return
	}

	value, err := coerce(raw, fieldValue.Type())
	if err != nil {
		b.invalidType(fieldPath, fullKey, err)
		return
	}

	fieldValue.Set(value)
	b.record(fieldPath, fullKey, source, tags)
}

func (b *structBinder) bindOptional(fieldValue reflect.Value, keyPath, fieldPath string, tags tagConfig) {
	raw, fullKey, source, found := b.resolve(keyPath, tags)
	if !found {
		return
	}

	inner := fieldValue.Field(0) // Value
	value, err := coerce(raw, inner.Type())
	if err != nil {
		b.invalidType(fieldPath, fullKey, err)
		return
	}

	inner.Set(value)
	fieldValue.Field(1).SetBool(true) // Set
	b.record(fieldPath, fullKey, source, tags)
}

// bindMapField fills a map field from the keys nested below keyPath, or from a
// map-valued property stored at keyPath itself.
func (b *structBinder) bindMapField(fieldValue reflect.Value, keyPath, fieldPath string, tags tagConfig) {
	mapType := fieldValue.Type()
	if mapType.Key().Kind() != reflect.String {
		b.invalidType(fieldPath, normalize.ApplyPrefix(b.namespace, keyPath), fmt.Errorf("unsupported map key type %s", mapType.Key()))
		return
	}

	if entry, ok := b.lookup(keyPath); ok {
		value, err := coerce(entry.value, mapType)
		if err != nil {
			b.invalidType(fieldPath, entry.fullKey, err)
			return
		}
		fieldValue.Set(value)
		b.record(fieldPath, entry.fullKey, entry.origin, tags)
		return
	}

	nested := b.under(keyPath)
	if len(nested) == 0 {
		return
	}

	if fieldValue.IsNil() {
		fieldValue.Set(reflect.MakeMapWithSize(mapType, len(nested)))
	}

	origin := ""
	for _, entry := range nested {
		b.consumed[normalize.Canonical(normalize.ApplyPrefix(keyPath, entry.key))] = true

		elem, err := coerce(entry.value, mapType.Elem())
		if err != nil {
			b.invalidType(fieldPath+"["+entry.key+"]", entry.fullKey, err)
			continue
		}
		fieldValue.SetMapIndex(reflect.ValueOf(entry.key).Convert(mapType.Key()), elem)
		if origin == "" {
			origin = entry.origin
		}
	}

	b.record(fieldPath, normalize.ApplyPrefix(b.namespace, keyPath), origin, tags)
}

func (b *structBinder) invalidType(fieldPath, fullKey string, err error) {
	b.bound.failed[fieldPath] = true
	b.errors = append(b.errors, FieldError{
		FieldPath: fieldPath,
		Code:      ErrCodeInvalidType,
		Message:   fmt.Sprintf("property %q: %v", fullKey, err),
	})
}

func (b *structBinder) record(fieldPath, fullKey, source string, tags tagConfig) {
	b.bound.provided[fieldPath] = true
	b.provenance = append(b.provenance, FieldProvenance{
		FieldPath:  fieldPath,
		KeyPath:    fullKey,
		SourceName: source,
		Secret:     tags.secret,
	})
}

// unknownKeys lists the entries no field consumed.
func (b *structBinder) unknownKeys() []FieldError {
	var out []FieldError
	for canon, i := range b.index {
		if b.consumed[canon] {
			continue
		}
		out = append(out, FieldError{
			FieldPath: b.entries[i].fullKey,
			Code:      ErrCodeUnknownKey,
			Message:   "unknown property key (strict mode)",
		})
	}
	sortFieldErrors(out)
	return out
}

// isOptionalType reports whether t is an Optional[T] instantiation.
func isOptionalType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(optionalMarker)
}

// isNestedStruct reports whether t is a struct the binder should descend into.
// time.Time and other text-decodable structs are leaf values.
func isNestedStruct(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t == timeType || isOptionalType(t) {
		return false
	}
	return !reflect.PointerTo(t).Implements(textUnmarshalerType)
}
