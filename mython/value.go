package mython

// ValueKind tags the concrete type a Value carries.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindClass
	KindInstance
)

func (k ValueKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindClass:
		return "class"
	case KindInstance:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the runtime representation of every mython value. The zero Value
// is None; class and instance values share their underlying descriptor or
// object, so copies of a Value alias the same state.
type Value struct {
	kind ValueKind
	data any
}

// Truthy is the extended truth predicate: None is false, a bool is itself,
// a number is true when nonzero, a string when non-empty. Classes and
// instances are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.data.(bool)
	case KindNumber:
		return v.data.(int) != 0
	case KindString:
		return v.data.(string) != ""
	default:
		return false
	}
}

// Closure is a scope: a mapping from identifier to value. Scopes are passed
// by reference during evaluation; instance field maps are Closures too.
type Closure map[string]Value
