package types

// Optional is a tri-state field for partial updates: unset (leave the stored
// value untouched), null (clear it), or set to a value.
type Optional[T any] struct {
	set   bool
	valid bool
	value T
}

// Some returns an Optional that sets the field to v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{set: true, valid: true, value: v}
}

// Null returns an Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true}
}

// FromPtr returns Some(*p), or Null when p is nil.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return Null[T]()
	}
	return Some(*p)
}

// IsSet reports whether the field takes part in the update.
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the field is set and clears the stored value.
func (o Optional[T]) IsNull() bool { return o.set && !o.valid }

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.valid }
