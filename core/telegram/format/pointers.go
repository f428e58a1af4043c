package format

// Deref safely dereferences p and returns def if nil.
func Deref[T any](p *T, def T) T {
	if p != nil {
		return *p
	}
	return def
}
