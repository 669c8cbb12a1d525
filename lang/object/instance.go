package object

import "github.com/ravener/clox/lang/table"

// Instance is a runtime instance of a Class: the class it was
// constructed from, plus a table of its own fields (not shared with
// other instances of the same class, unlike methods).
type Instance struct {
	Header
	Class  *Class
	Fields table.Table
}

// NewInstance allocates an unlinked, field-less Instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Header: newHeader(KindInstance), Class: class}
}

func (i *Instance) TypeName() string { return "instance" }
func (i *Instance) String() string   { return i.Class.Name.Chars + " instance" }
func (i *Instance) Size() int        { return 48 }
