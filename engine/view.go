package engine

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns loaded data. It reads through this interface.
//
// Implementations:
//   SliceView      — wraps []Record (loader output)
//   SubView        — filtered subset (indices into parent, zero-copy)
//   ConcatView     — virtual concatenation of two views (multi-file runs)
//   DomainView[T]  — reads typed structs via accessor functions (zero-copy)
// ============================================================================

// RecordView provides indexed access to a dataset.
// Aggregations call Field in tight loops — keep implementations fast.
type RecordView interface {
	Len() int
	Field(index int, key string) string
	Keys() []string // known field names, header order
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	keys    []string
}

// NewSliceView creates a RecordView from records. When keys is empty the
// field names are collected from the records in first-seen order.
func NewSliceView(records []Record, keys ...string) RecordView {
	v := &SliceView{records: records, keys: keys}
	if len(v.keys) == 0 {
		v.cacheKeys()
	}
	return v
}

func (v *SliceView) cacheKeys() {
	seen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				v.keys = append(v.keys, k)
			}
		}
	}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Field(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Get(key)
}

func (v *SliceView) Keys() []string { return v.keys }

// Record returns the underlying record at index i.
func (v *SliceView) Record(i int) Record {
	if i < 0 || i >= len(v.records) {
		return nil
	}
	return v.records[i]
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Field(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Field(v.indices[i], key)
}

func (v *SubView) Keys() []string { return v.parent.Keys() }

// Record returns the parent record behind index i, when the parent has one.
func (v *SubView) Record(i int) Record {
	if i < 0 || i >= len(v.indices) {
		return nil
	}
	return recordAt(v.parent, v.indices[i])
}

// ============================================================================
// CONCAT VIEW — virtual concatenation of two views
// ============================================================================

// ConcatView logically concatenates two RecordViews.
// Used when a run loads several files of the same shape.
type ConcatView struct {
	a, b RecordView
	keys []string
}

// Concat joins views in order. Keys are the union, first view first.
func Concat(views ...RecordView) RecordView {
	switch len(views) {
	case 0:
		return NewSliceView(nil)
	case 1:
		return views[0]
	}
	out := views[0]
	for _, next := range views[1:] {
		out = newConcatView(out, next)
	}
	return out
}

func newConcatView(a, b RecordView) RecordView {
	seen := make(map[string]bool)
	var keys []string
	for _, k := range append(append([]string(nil), a.Keys()...), b.Keys()...) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return &ConcatView{a: a, b: b, keys: keys}
}

func (v *ConcatView) Len() int { return v.a.Len() + v.b.Len() }

func (v *ConcatView) Field(i int, key string) string {
	if i < v.a.Len() {
		return v.a.Field(i, key)
	}
	return v.b.Field(i-v.a.Len(), key)
}

func (v *ConcatView) Keys() []string { return v.keys }

// Record returns the record behind index i from whichever side holds it.
func (v *ConcatView) Record(i int) Record {
	if i < v.a.Len() {
		return recordAt(v.a, i)
	}
	return recordAt(v.b, i-v.a.Len())
}

// ============================================================================
// MATERIALIZATION
// ============================================================================

// RecordSource is implemented by views backed by loaded records.
type RecordSource interface {
	Record(i int) Record
}

// Records returns the records of a view in order. Views backed by records
// return the originals; other views are copied field by field over Keys.
func Records(view RecordView) []Record {
	out := make([]Record, view.Len())
	for i := range out {
		out[i] = recordAt(view, i)
	}
	return out
}

func recordAt(view RecordView, i int) Record {
	if src, ok := view.(RecordSource); ok {
		if rec := src.Record(i); rec != nil {
			return rec
		}
	}
	rec := make(Record, len(view.Keys()))
	for _, k := range view.Keys() {
		rec[k] = view.Field(i, k)
	}
	return rec
}

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[scoring.ScoredRecord]().
//	    Field("keyword", func(s scoring.ScoredRecord) string { return s.Primary() })
//
//	view := adapter.Bind(scored)
//	agg := engine.Frequency(view, "keyword")
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	order  []string
	fields map[string]func(T) string
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{fields: make(map[string]func(T) string)}
}

// Field registers a field accessor.
func (a *DomainAdapter[T]) Field(key string, fn func(T) string) *DomainAdapter[T] {
	if _, exists := a.fields[key]; !exists {
		a.order = append(a.order, key)
	}
	a.fields[key] = fn
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy — holds reference.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{data: data, fields: a.fields, keys: a.order}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data   []T
	fields map[string]func(T) string
	keys   []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Field(i int, key string) string {
	if i < 0 || i >= len(v.data) {
		return ""
	}
	if fn, ok := v.fields[key]; ok {
		return fn(v.data[i])
	}
	return ""
}

func (v *DomainView[T]) Keys() []string { return v.keys }
