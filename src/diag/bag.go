package diag

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Diagnostic is a single reported problem: a severity, a code, the span it
// concerns, and any rendering arguments the message table substitutes in.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Span     Span
	Args     []interface{}
}

// dedupKey is the (severity, code, span) tuple used to suppress exact
// duplicate diagnostics, per spec.md section 4.2's dedup rule.
type dedupKey struct {
	sev  Severity
	code Code
	span Span
}

// Bag is an append-only collector of diagnostics. It is not safe for
// concurrent use: per spec.md section 5 the core pipeline is
// single-threaded, and the one parallel pass that reports diagnostics
// (src/capability) accumulates into a separate Bag per unit and merges
// them sequentially once its errgroup completes.
type Bag struct {
	entries []Diagnostic
	seen    map[dedupKey]struct{}
	lastLo  map[Code]uint32
}

// ---------------------
// ----- functions -----
// ---------------------

// NewBag returns an empty diagnostics bag.
func NewBag() *Bag {
	return &Bag{
		seen:   make(map[dedupKey]struct{}),
		lastLo: make(map[Code]uint32),
	}
}

// Append adds a diagnostic to the bag unless it is an exact duplicate of one
// already present, or it shares its code and starting offset with the most
// recently appended diagnostic of that code (adjacent-duplicate
// suppression, e.g. repeated ExpectedToken at the same recovery point).
func (b *Bag) Append(d Diagnostic) {
	key := dedupKey{sev: d.Severity, code: d.Code, span: d.Span}
	if _, ok := b.seen[key]; ok {
		return
	}
	if lo, ok := b.lastLo[d.Code]; ok && lo == d.Span.Lo {
		return
	}
	b.seen[key] = struct{}{}
	b.lastLo[d.Code] = d.Span.Lo
	b.entries = append(b.entries, d)
}

// Errorf is a convenience wrapper constructing and appending an Error
// severity diagnostic.
func (b *Bag) Errorf(code Code, span Span, args ...interface{}) {
	b.Append(Diagnostic{Severity: Error, Code: code, Span: span, Args: args})
}

// Warnf is a convenience wrapper constructing and appending a Warning
// severity diagnostic.
func (b *Bag) Warnf(code Code, span Span, args ...interface{}) {
	b.Append(Diagnostic{Severity: Warning, Code: code, Span: span, Args: args})
}

// Fatalf is a convenience wrapper constructing and appending a Fatal
// severity diagnostic.
func (b *Bag) Fatalf(code Code, span Span, args ...interface{}) {
	b.Append(Diagnostic{Severity: Fatal, Code: code, Span: span, Args: args})
}

// All returns every diagnostic reported so far, in insertion order.
func (b *Bag) All() []Diagnostic {
	return b.entries
}

// Len returns the number of diagnostics currently held.
func (b *Bag) Len() int {
	return len(b.entries)
}

// HasError reports whether the bag contains any Error- or Fatal-severity
// diagnostic. This is the gate predicate every stage boundary in spec.md
// section 7 consults.
func (b *Bag) HasError() bool {
	for _, d := range b.entries {
		if d.Severity == Error || d.Severity == Fatal {
			return true
		}
	}
	return false
}

// HasFatal reports whether the bag contains a Fatal-severity diagnostic,
// e.g. TooManyErrors. Fatal diagnostics set the abort flag every subsequent
// stage checks (spec.md section 5).
func (b *Bag) HasFatal() bool {
	for _, d := range b.entries {
		if d.Severity == Fatal {
			return true
		}
	}
	return false
}

// Merge appends every diagnostic from other into b, preserving dedup rules.
// Used to fold per-worker bags from a parallel pass back into the caller's
// bag in a stable order once the worker pool has completed.
func (b *Bag) Merge(other *Bag) {
	for _, d := range other.entries {
		b.Append(d)
	}
}
