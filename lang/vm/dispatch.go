package vm

import (
	"fmt"

	"github.com/ravener/clox/lang/chunk"
	"github.com/ravener/clox/lang/debug"
	"github.com/ravener/clox/lang/gc"
	"github.com/ravener/clox/lang/object"
	"github.com/ravener/clox/lang/table"
	"github.com/ravener/clox/lang/value"
	"github.com/sirupsen/logrus"
)

// stepFn executes one already-decoded instruction and reports whether
// the run loop should stop (the top-level frame returned) along with
// any runtime error. Every opcode has exactly one stepFn, shared
// verbatim by both dispatch strategies below, so "both dispatch modes
// produce identical observable behavior" holds by construction rather
// than by testing.
type stepFn func(vm *VM) (done bool, err *RuntimeError)

// installHandlers builds the threaded-dispatch jump table: a [256]stepFn
// indexed directly by opcode byte, Go's nearest equivalent to a
// computed-goto threaded interpreter since Go has no first-class labels.
func (vm *VM) installHandlers() {
	vm.handlers[chunk.CONSTANT] = (*VM).opConstant
	vm.handlers[chunk.NIL] = (*VM).opNil
	vm.handlers[chunk.TRUE] = (*VM).opTrue
	vm.handlers[chunk.FALSE] = (*VM).opFalse
	vm.handlers[chunk.POP] = (*VM).opPop
	vm.handlers[chunk.GET_LOCAL] = (*VM).opGetLocal
	vm.handlers[chunk.SET_LOCAL] = (*VM).opSetLocal
	vm.handlers[chunk.GET_GLOBAL] = (*VM).opGetGlobal
	vm.handlers[chunk.DEFINE_GLOBAL] = (*VM).opDefineGlobal
	vm.handlers[chunk.SET_GLOBAL] = (*VM).opSetGlobal
	vm.handlers[chunk.GET_UPVALUE] = (*VM).opGetUpvalue
	vm.handlers[chunk.SET_UPVALUE] = (*VM).opSetUpvalue
	vm.handlers[chunk.GET_PROPERTY] = (*VM).opGetProperty
	vm.handlers[chunk.SET_PROPERTY] = (*VM).opSetProperty
	vm.handlers[chunk.GET_SUPER] = (*VM).opGetSuper
	vm.handlers[chunk.EQUAL] = (*VM).opEqual
	vm.handlers[chunk.GREATER] = (*VM).opGreater
	vm.handlers[chunk.LESS] = (*VM).opLess
	vm.handlers[chunk.ADD] = (*VM).opAdd
	vm.handlers[chunk.SUBTRACT] = (*VM).opSubtract
	vm.handlers[chunk.MULTIPLY] = (*VM).opMultiply
	vm.handlers[chunk.DIVIDE] = (*VM).opDivide
	vm.handlers[chunk.NOT] = (*VM).opNot
	vm.handlers[chunk.NEGATE] = (*VM).opNegate
	vm.handlers[chunk.PRINT] = (*VM).opPrint
	vm.handlers[chunk.JUMP] = (*VM).opJump
	vm.handlers[chunk.JUMP_IF_FALSE] = (*VM).opJumpIfFalse
	vm.handlers[chunk.LOOP] = (*VM).opLoop
	vm.handlers[chunk.CALL] = (*VM).opCall
	vm.handlers[chunk.INVOKE] = (*VM).opInvoke
	vm.handlers[chunk.SUPER_INVOKE] = (*VM).opSuperInvoke
	vm.handlers[chunk.CLOSURE] = (*VM).opClosure
	vm.handlers[chunk.CLOSE_UPVALUE] = (*VM).opCloseUpvalue
	vm.handlers[chunk.RETURN] = (*VM).opReturn
	vm.handlers[chunk.CLASS] = (*VM).opClass
	vm.handlers[chunk.INHERIT] = (*VM).opInherit
	vm.handlers[chunk.METHOD] = (*VM).opMethod
}

// run dispatches to whichever strategy vm.Dispatch names.
func (vm *VM) run() *RuntimeError {
	if vm.Dispatch == DispatchThreaded {
		return vm.runThreaded()
	}
	return vm.runSwitch()
}

func (vm *VM) traceInstruction() {
	if !vm.Trace || !logrus.IsLevelEnabled(logrus.TraceLevel) {
		return
	}
	f := vm.currentFrame()
	logrus.WithField("component", "vm").Trace(debug.DisassembleInstruction(&f.closure.Function.Chunk, f.ip))
}

// runSwitch is the switch-based dispatch loop: the opcode byte selects a
// case by an explicit branch table the Go compiler builds from the
// switch statement.
func (vm *VM) runSwitch() *RuntimeError {
	for {
		vm.traceInstruction()
		f := vm.currentFrame()
		op := chunk.OpCode(vm.readByte(f))

		var done bool
		var err *RuntimeError
		switch op {
		case chunk.CONSTANT:
			done, err = vm.opConstant()
		case chunk.NIL:
			done, err = vm.opNil()
		case chunk.TRUE:
			done, err = vm.opTrue()
		case chunk.FALSE:
			done, err = vm.opFalse()
		case chunk.POP:
			done, err = vm.opPop()
		case chunk.GET_LOCAL:
			done, err = vm.opGetLocal()
		case chunk.SET_LOCAL:
			done, err = vm.opSetLocal()
		case chunk.GET_GLOBAL:
			done, err = vm.opGetGlobal()
		case chunk.DEFINE_GLOBAL:
			done, err = vm.opDefineGlobal()
		case chunk.SET_GLOBAL:
			done, err = vm.opSetGlobal()
		case chunk.GET_UPVALUE:
			done, err = vm.opGetUpvalue()
		case chunk.SET_UPVALUE:
			done, err = vm.opSetUpvalue()
		case chunk.GET_PROPERTY:
			done, err = vm.opGetProperty()
		case chunk.SET_PROPERTY:
			done, err = vm.opSetProperty()
		case chunk.GET_SUPER:
			done, err = vm.opGetSuper()
		case chunk.EQUAL:
			done, err = vm.opEqual()
		case chunk.GREATER:
			done, err = vm.opGreater()
		case chunk.LESS:
			done, err = vm.opLess()
		case chunk.ADD:
			done, err = vm.opAdd()
		case chunk.SUBTRACT:
			done, err = vm.opSubtract()
		case chunk.MULTIPLY:
			done, err = vm.opMultiply()
		case chunk.DIVIDE:
			done, err = vm.opDivide()
		case chunk.NOT:
			done, err = vm.opNot()
		case chunk.NEGATE:
			done, err = vm.opNegate()
		case chunk.PRINT:
			done, err = vm.opPrint()
		case chunk.JUMP:
			done, err = vm.opJump()
		case chunk.JUMP_IF_FALSE:
			done, err = vm.opJumpIfFalse()
		case chunk.LOOP:
			done, err = vm.opLoop()
		case chunk.CALL:
			done, err = vm.opCall()
		case chunk.INVOKE:
			done, err = vm.opInvoke()
		case chunk.SUPER_INVOKE:
			done, err = vm.opSuperInvoke()
		case chunk.CLOSURE:
			done, err = vm.opClosure()
		case chunk.CLOSE_UPVALUE:
			done, err = vm.opCloseUpvalue()
		case chunk.RETURN:
			done, err = vm.opReturn()
		case chunk.CLASS:
			done, err = vm.opClass()
		case chunk.INHERIT:
			done, err = vm.opInherit()
		case chunk.METHOD:
			done, err = vm.opMethod()
		default:
			return vm.runtimeError("Unknown opcode %d.", byte(op))
		}

		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// runThreaded is the table-based dispatch loop: the opcode byte indexes
// directly into vm.handlers, the same handlers runSwitch calls by name.
func (vm *VM) runThreaded() *RuntimeError {
	for {
		vm.traceInstruction()
		f := vm.currentFrame()
		op := vm.readByte(f)

		handler := vm.handlers[op]
		if handler == nil {
			return vm.runtimeError("Unknown opcode %d.", op)
		}
		done, err := handler(vm)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// --- simple stack/literal ops --------------------------------------------

func (vm *VM) opConstant() (bool, *RuntimeError) {
	vm.push(vm.readConstant(vm.currentFrame()))
	return false, nil
}

func (vm *VM) opNil() (bool, *RuntimeError)   { vm.push(value.Nil{}); return false, nil }
func (vm *VM) opTrue() (bool, *RuntimeError)  { vm.push(value.Bool(true)); return false, nil }
func (vm *VM) opFalse() (bool, *RuntimeError) { vm.push(value.Bool(false)); return false, nil }
func (vm *VM) opPop() (bool, *RuntimeError)   { vm.pop(); return false, nil }

// --- locals/globals/upvalues ----------------------------------------------

func (vm *VM) opGetLocal() (bool, *RuntimeError) {
	f := vm.currentFrame()
	slot := vm.readByte(f)
	vm.push(vm.stack[f.slots+int(slot)])
	return false, nil
}

func (vm *VM) opSetLocal() (bool, *RuntimeError) {
	f := vm.currentFrame()
	slot := vm.readByte(f)
	vm.stack[f.slots+int(slot)] = vm.peek(0)
	return false, nil
}

func (vm *VM) opGetGlobal() (bool, *RuntimeError) {
	name := vm.readString(vm.currentFrame())
	val, ok := vm.globals.Get(name)
	if !ok {
		return false, vm.runtimeError("Undefined variable '%s'.", name.Chars)
	}
	vm.push(val)
	return false, nil
}

func (vm *VM) opDefineGlobal() (bool, *RuntimeError) {
	name := vm.readString(vm.currentFrame())
	vm.globals.Set(name, vm.peek(0))
	vm.pop()
	return false, nil
}

// opSetGlobal probes existence and upserts in one Table.SetOrInsert call,
// then reverts the write with a Delete if the global did not already
// exist: a failing assignment still inserts transiently and undoes it,
// as the classic clox tableSet/tableDelete sequence does.
func (vm *VM) opSetGlobal() (bool, *RuntimeError) {
	name := vm.readString(vm.currentFrame())
	existed := vm.globals.SetOrInsert(name, vm.peek(0))
	if !existed {
		vm.globals.Delete(name)
		return false, vm.runtimeError("Undefined variable '%s'.", name.Chars)
	}
	return false, nil
}

func (vm *VM) opGetUpvalue() (bool, *RuntimeError) {
	f := vm.currentFrame()
	idx := vm.readByte(f)
	vm.push(*f.closure.Upvalues[idx].Location)
	return false, nil
}

func (vm *VM) opSetUpvalue() (bool, *RuntimeError) {
	f := vm.currentFrame()
	idx := vm.readByte(f)
	*f.closure.Upvalues[idx].Location = vm.peek(0)
	return false, nil
}

// --- properties & methods --------------------------------------------------

func (vm *VM) opGetProperty() (bool, *RuntimeError) {
	instance, ok := vm.peek(0).(*object.Instance)
	if !ok {
		return false, vm.runtimeError("Only instances have properties.")
	}
	name := vm.readString(vm.currentFrame())
	if val, ok := instance.Fields.Get(name); ok {
		vm.pop()
		vm.push(val)
		return false, nil
	}
	if err := vm.bindMethod(instance.Class, name); err != nil {
		return false, err
	}
	return false, nil
}

func (vm *VM) opSetProperty() (bool, *RuntimeError) {
	instance, ok := vm.peek(1).(*object.Instance)
	if !ok {
		return false, vm.runtimeError("Only instances have fields.")
	}
	name := vm.readString(vm.currentFrame())
	instance.Fields.Set(name, vm.peek(0))
	val := vm.pop()
	vm.pop()
	vm.push(val)
	return false, nil
}

func (vm *VM) opGetSuper() (bool, *RuntimeError) {
	name := vm.readString(vm.currentFrame())
	superclass := vm.pop().(*object.Class)
	if err := vm.bindMethod(superclass, name); err != nil {
		return false, err
	}
	return false, nil
}

// --- comparisons & arithmetic -----------------------------------------------

func (vm *VM) opEqual() (bool, *RuntimeError) {
	b, a := vm.pop(), vm.pop()
	vm.push(value.Bool(valuesEqual(a, b)))
	return false, nil
}

func valuesEqual(a, b value.Value) bool {
	if as, ok := a.(*object.String); ok {
		bs, ok := b.(*object.String)
		return ok && as == bs // strings are interned: identity is equality
	}
	return value.Equal(a, b)
}

func (vm *VM) numericBinary(op byte) (bool, *RuntimeError) {
	bv, bok := vm.peek(0).(value.Number)
	av, aok := vm.peek(1).(value.Number)
	if !aok || !bok {
		return false, vm.runtimeError("Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	switch op {
	case '>':
		vm.push(value.Bool(av > bv))
	case '<':
		vm.push(value.Bool(av < bv))
	case '-':
		vm.push(av - bv)
	case '*':
		vm.push(av * bv)
	case '/':
		vm.push(av / bv)
	}
	return false, nil
}

func (vm *VM) opGreater() (bool, *RuntimeError)  { return vm.numericBinary('>') }
func (vm *VM) opLess() (bool, *RuntimeError)     { return vm.numericBinary('<') }
func (vm *VM) opSubtract() (bool, *RuntimeError) { return vm.numericBinary('-') }
func (vm *VM) opMultiply() (bool, *RuntimeError) { return vm.numericBinary('*') }
func (vm *VM) opDivide() (bool, *RuntimeError)   { return vm.numericBinary('/') }

// opAdd handles both numeric addition and string concatenation. The
// operands are peeked, not popped, until the result is known so that a
// concatenation's interned result stays reachable from the stack
// through InternString's allocation, per spec.md §4.3's "the temporary
// must remain reachable ... to survive GC triggered during allocation."
func (vm *VM) opAdd() (bool, *RuntimeError) {
	b := vm.peek(0)
	a := vm.peek(1)

	switch bv := b.(type) {
	case value.Number:
		av, ok := a.(value.Number)
		if !ok {
			return false, vm.runtimeError("Operands must be two numbers or two strings.")
		}
		vm.pop()
		vm.pop()
		vm.push(av + bv)
		return false, nil
	case *object.String:
		as, ok := a.(*object.String)
		if !ok {
			return false, vm.runtimeError("Operands must be two numbers or two strings.")
		}
		result := vm.internString(as.Chars + bv.Chars)
		vm.pop()
		vm.pop()
		vm.push(result)
		return false, nil
	default:
		return false, vm.runtimeError("Operands must be two numbers or two strings.")
	}
}

func (vm *VM) opNot() (bool, *RuntimeError) {
	vm.push(value.Bool(!value.Truthy(vm.pop())))
	return false, nil
}

func (vm *VM) opNegate() (bool, *RuntimeError) {
	n, ok := vm.peek(0).(value.Number)
	if !ok {
		return false, vm.runtimeError("Operand must be a number.")
	}
	vm.pop()
	vm.push(-n)
	return false, nil
}

func (vm *VM) opPrint() (bool, *RuntimeError) {
	fmt.Fprintln(vm.Stdout, vm.pop().String())
	return false, nil
}

// --- control flow -----------------------------------------------------------

func (vm *VM) opJump() (bool, *RuntimeError) {
	f := vm.currentFrame()
	offset := vm.readShort(f)
	f.ip += int(offset)
	return false, nil
}

func (vm *VM) opJumpIfFalse() (bool, *RuntimeError) {
	f := vm.currentFrame()
	offset := vm.readShort(f)
	if !value.Truthy(vm.peek(0)) {
		f.ip += int(offset)
	}
	return false, nil
}

func (vm *VM) opLoop() (bool, *RuntimeError) {
	f := vm.currentFrame()
	offset := vm.readShort(f)
	f.ip -= int(offset)
	return false, nil
}

// --- calls --------------------------------------------------------------

func (vm *VM) opCall() (bool, *RuntimeError) {
	f := vm.currentFrame()
	argCount := int(vm.readByte(f))
	if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
		return false, err
	}
	return false, nil
}

func (vm *VM) opInvoke() (bool, *RuntimeError) {
	f := vm.currentFrame()
	name := vm.readString(f)
	argCount := int(vm.readByte(f))
	if err := vm.invoke(name, argCount); err != nil {
		return false, err
	}
	return false, nil
}

func (vm *VM) opSuperInvoke() (bool, *RuntimeError) {
	f := vm.currentFrame()
	name := vm.readString(f)
	argCount := int(vm.readByte(f))
	superclass := vm.pop().(*object.Class)
	if err := vm.invokeFromClass(superclass, name, argCount); err != nil {
		return false, err
	}
	return false, nil
}

func (vm *VM) opClosure() (bool, *RuntimeError) {
	f := vm.currentFrame()
	fn := vm.readConstant(f).(*object.Function)
	closure := object.NewClosure(fn)
	vm.track(closure)
	vm.push(closure)

	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte(f) == 1
		idx := vm.readByte(f)
		if isLocal {
			closure.Upvalues[i] = vm.captureUpvalue(f.slots + int(idx))
		} else {
			closure.Upvalues[i] = f.closure.Upvalues[idx]
		}
	}
	return false, nil
}

func (vm *VM) opCloseUpvalue() (bool, *RuntimeError) {
	vm.closeUpvalues(vm.stackTop - 1)
	vm.pop()
	return false, nil
}

func (vm *VM) opReturn() (bool, *RuntimeError) {
	f := vm.currentFrame()
	result := vm.pop()
	vm.closeUpvalues(f.slots)
	vm.frameCount--
	if vm.frameCount == 0 {
		vm.pop()
		return true, nil
	}
	vm.stackTop = f.slots
	vm.push(result)
	return false, nil
}

// --- classes --------------------------------------------------------------

func (vm *VM) opClass() (bool, *RuntimeError) {
	name := vm.readString(vm.currentFrame())
	class := object.NewClass(name)
	vm.track(class)
	vm.push(class)
	return false, nil
}

// opInherit copies every method of the superclass (peek(1)) into the
// subclass (peek(0), popped afterward) — single-inheritance method
// binding implemented as a one-time table copy rather than a runtime
// superclass-chain walk, per spec.md §4.3.
func (vm *VM) opInherit() (bool, *RuntimeError) {
	superclass, ok := vm.peek(1).(*object.Class)
	if !ok {
		return false, vm.runtimeError("Superclass must be a class.")
	}
	subclass := vm.peek(0).(*object.Class)
	superclass.Methods.Each(func(key table.Key, val value.Value) {
		subclass.Methods.Set(key, val)
	})
	vm.pop()
	return false, nil
}

func (vm *VM) opMethod() (bool, *RuntimeError) {
	name := vm.readString(vm.currentFrame())
	method := vm.pop()
	class := vm.peek(0).(*object.Class)
	class.Methods.Set(name, method)
	return false, nil
}

// --- GC roots --------------------------------------------------------------

// markRoots marks the VM's roots (value stack, frame closures, open
// upvalues, globals, initString) via the collector's caller-supplied
// callback, avoiding an import cycle between lang/gc and lang/vm. The
// compiler's in-progress functions are not marked here; the compiler's
// own allocations go through NewObject/InternString, which never start a
// collection.
func (vm *VM) markRoots(c *gc.Collector) {
	for i := 0; i < vm.stackTop; i++ {
		c.MarkValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		c.MarkObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		c.MarkObject(uv)
	}
	c.MarkTable(&vm.globals)
	c.MarkObject(vm.initString)
}
