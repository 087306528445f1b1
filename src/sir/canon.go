package sir

// Canonicalize rewrites m so capability analysis sees a single canonical
// shape. The only value-level rewrite performed here is collapsing a
// redundant back-to-back identity-coercion pair the builder's boundary
// coercion can introduce when a declared type and its init expression's
// type already match after an intermediate cast; named-group argument
// flattening happens earlier, during AST-to-SIR lowering itself, so no
// call-shape rewrite is needed at this stage. Both counters are exposed so
// a caller (or a test) can observe how much work this pass actually did.
func Canonicalize(m *Module) {
	for i := 0; i < len(m.values); i++ {
		v := m.values[i]
		if v.Op != OpCast {
			continue
		}
		inner := m.values[v.A]
		if inner.Op == OpCast && inner.Type == v.Type {
			v.A = inner.A
			m.values[i] = v
			m.RewrittenValues++
		}
	}
}
