package mython

func NewNone() Value {
	return Value{}
}

func NewBool(b bool) Value {
	return Value{kind: KindBool, data: b}
}

func NewNumber(n int) Value {
	return Value{kind: KindNumber, data: n}
}

func NewString(s string) Value {
	return Value{kind: KindString, data: s}
}

func NewClassValue(cls *Class) Value {
	return Value{kind: KindClass, data: cls}
}

func NewInstanceValue(inst *Instance) Value {
	return Value{kind: KindInstance, data: inst}
}
