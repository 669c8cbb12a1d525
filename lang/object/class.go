package object

import "github.com/ravener/clox/lang/table"

// Class is a Lox class: its name and a method table mapping interned
// method-name strings to Closure values. Inheritance is implemented by
// copying the superclass's method table into the subclass at the
// INHERIT opcode, so method lookup here never has to walk a superclass
// chain at call time.
type Class struct {
	Header
	Name    *String
	Methods table.Table
}

// NewClass allocates an unlinked Class named name.
func NewClass(name *String) *Class {
	return &Class{Header: newHeader(KindClass), Name: name}
}

func (c *Class) TypeName() string { return "class" }
func (c *Class) String() string   { return c.Name.Chars }
func (c *Class) Size() int        { return 48 }
