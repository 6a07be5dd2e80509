package mython

// Method is one named method of a class: its formal parameter names (the
// implicit self excluded) and its body suite.
type Method struct {
	Name         string
	FormalParams []string
	Body         []Statement
}

// Class describes a declared class. The parent pointer is shared with the
// program's class registry and outlives every instance.
type Class struct {
	Name    string
	Methods []*Method
	Parent  *Class

	byName map[string]*Method
}

// NewClass builds a class descriptor and indexes its methods by name.
func NewClass(name string, methods []*Method, parent *Class) *Class {
	cls := &Class{Name: name, Methods: methods, Parent: parent, byName: make(map[string]*Method, len(methods))}
	for _, m := range methods {
		cls.byName[m.Name] = m
	}
	return cls
}

// GetMethod resolves a method name on this class, falling through to the
// parent chain on a miss. Returns nil when no ancestor defines it.
func (c *Class) GetMethod(name string) *Method {
	if m, ok := c.byName[name]; ok {
		return m
	}
	if c.Parent != nil {
		return c.Parent.GetMethod(name)
	}
	return nil
}

// Instance is one object of a class. Fields may hold other instances,
// including reference cycles back to this one.
type Instance struct {
	Class  *Class
	Fields Closure
}

// NewInstance creates a fresh, empty instance of cls.
func NewInstance(cls *Class) *Instance {
	return &Instance{Class: cls, Fields: make(Closure)}
}

// HasMethod reports whether the class chain defines name with exactly
// argCount formal parameters.
func (inst *Instance) HasMethod(name string, argCount int) bool {
	m := inst.Class.GetMethod(name)
	return m != nil && len(m.FormalParams) == argCount
}
