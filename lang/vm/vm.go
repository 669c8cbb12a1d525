// Package vm implements the stack-based virtual machine: the dispatch
// loop, calling convention, upvalue lifecycle, and property/method
// semantics that execute a compiled lang/chunk.Chunk.
package vm

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/ravener/clox/lang/compiler"
	"github.com/ravener/clox/lang/gc"
	"github.com/ravener/clox/lang/object"
	"github.com/ravener/clox/lang/table"
	"github.com/ravener/clox/lang/value"
	"github.com/sirupsen/logrus"
)

// FramesMax bounds call-stack depth; StackMax is derived from it the
// same way the reference design ties value-stack size to frame count
// (each frame can address up to 256 local slots).
const (
	FramesMax  = 64
	UInt8Count = 256
	StackMax   = FramesMax * UInt8Count
)

// Dispatch selects which of the two behaviorally-identical dispatch
// loops Run uses.
type Dispatch int

//nolint:revive
const (
	DispatchSwitch Dispatch = iota
	DispatchThreaded
)

// Result is interpret's outcome, per spec.md §6.
type Result int

//nolint:revive
const (
	OK Result = iota
	CompileError
	RuntimeErr
)

// frame is one call's window into the shared value stack.
type frame struct {
	closure *object.Closure
	ip      int
	slots   int // base index into vm.stack
}

// VM is the interpreter's entire mutable state: the value stack, the
// call-frame stack, globals, the open-upvalue chain, and the collector
// that owns the heap. One VM instance is meant to outlive many
// sequential Interpret calls (a REPL session), sharing globals and the
// string intern table across them, per spec.md §5.
type VM struct {
	Dispatch Dispatch
	Trace    bool
	Stdout   io.Writer

	stack    [StackMax]value.Value
	stackTop int

	frames     [FramesMax]frame
	frameCount int

	globals      table.Table
	openUpvalues *object.Upvalue

	heap *object.Heap
	gc   *gc.Collector

	initString *object.String

	handlers [256]stepFn
}

// New creates a VM with its own heap and collector, installs the four
// required native functions, and wires the collector's root-marking
// callback back into this VM so Collect can find every live reference.
func New() *VM {
	heap := &object.Heap{}
	vm := &VM{
		heap:   heap,
		gc:     gc.New(heap),
		Stdout: os.Stdout,
	}
	vm.gc.MarkRoots = vm.markRoots
	vm.initString = vm.gc.InternString("init")
	vm.installHandlers()
	vm.defineNatives()
	return vm
}

// track links obj into the heap and accounts for it, then runs a
// collection if allocation has crossed the threshold — the single
// allocation path every VM-side opcode handler goes through, per
// spec.md §4.4.
func (vm *VM) track(obj object.Obj) object.Obj {
	vm.gc.NewObject(obj)
	vm.gc.CollectIfNeeded()
	return obj
}

func (vm *VM) internString(s string) *object.String {
	str := vm.gc.InternString(s)
	vm.push(str)
	vm.gc.CollectIfNeeded()
	vm.pop()
	return str
}

// Interpret compiles source and, on success, runs it to completion. A
// compile failure never reaches the dispatch loop; a runtime failure
// unwinds the frame and value stacks back to empty, per spec.md §7.
func (vm *VM) Interpret(source string) (Result, error) {
	fn, err := compiler.Compile(source, vm.gc)
	if err != nil {
		logrus.WithField("component", "vm").Warn(err)
		return CompileError, err
	}

	closure := object.NewClosure(fn)
	vm.track(closure)
	vm.push(closure)
	vm.call(closure, 0)

	if rerr := vm.run(); rerr != nil {
		logrus.WithField("component", "vm").Error(rerr)
		return RuntimeErr, rerr
	}
	return OK, nil
}

// --- value stack --------------------------------------------------------

func (vm *VM) push(v value.Value) { vm.stack[vm.stackTop] = v; vm.stackTop++ }
func (vm *VM) pop() value.Value   { vm.stackTop--; return vm.stack[vm.stackTop] }
func (vm *VM) peek(distance int) value.Value { return vm.stack[vm.stackTop-1-distance] }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// --- frames --------------------------------------------------------------

func (vm *VM) currentFrame() *frame { return &vm.frames[vm.frameCount-1] }

func (vm *VM) readByte(f *frame) byte {
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort(f *frame) uint16 {
	hi := vm.readByte(f)
	lo := vm.readByte(f)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(f *frame) value.Value {
	return f.closure.Function.Chunk.Constants[vm.readByte(f)]
}

func (vm *VM) readString(f *frame) *object.String {
	return vm.readConstant(f).(*object.String)
}

// runtimeError builds a RuntimeError carrying a backtrace of every live
// frame (innermost first) and resets the stack, per spec.md §7.
func (vm *VM) runtimeError(format string, args ...interface{}) *RuntimeError {
	msg := fmt.Sprintf(format, args...)

	trace := make([]StackFrame, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		line := fn.Chunk.Line(f.ip - 1)
		trace = append(trace, StackFrame{Name: name, Line: line})
	}

	vm.resetStack()
	return newRuntimeError(msg, trace)
}

// --- calling convention ---------------------------------------------------

// callValue dispatches CALL by the callee's concrete kind, per
// spec.md §4.3.
func (vm *VM) callValue(callee value.Value, argCount int) *RuntimeError {
	switch c := callee.(type) {
	case *object.BoundMethod:
		vm.stack[vm.stackTop-argCount-1] = c.Receiver
		return vm.call(c.Method, argCount)
	case *object.Class:
		instance := object.NewInstance(c)
		vm.track(instance)
		vm.stack[vm.stackTop-argCount-1] = instance
		if init, ok := c.Methods.Get(vm.initString); ok {
			return vm.call(init.(*object.Closure), argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		}
		return nil
	case *object.Closure:
		return vm.call(c, argCount)
	case *object.Native:
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result, err := c.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stackTop -= argCount + 1
		vm.push(result)
		return nil
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

func (vm *VM) call(closure *object.Closure, argCount int) *RuntimeError {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == FramesMax {
		return vm.runtimeError("Stack overflow.")
	}

	vm.frames[vm.frameCount] = frame{
		closure: closure,
		ip:      0,
		slots:   vm.stackTop - argCount - 1,
	}
	vm.frameCount++
	return nil
}

// invoke fuses GET_PROPERTY + CALL: if name resolves to a field holding
// a callable, that callable is called; otherwise it falls through to
// ordinary method dispatch, per spec.md §4.3.
func (vm *VM) invoke(name *object.String, argCount int) *RuntimeError {
	receiver := vm.peek(argCount)
	instance, ok := receiver.(*object.Instance)
	if !ok {
		return vm.runtimeError("Only instances have properties.")
	}

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *object.Class, name *object.String, argCount int) *RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.(*object.Closure), argCount)
}

func (vm *VM) bindMethod(class *object.Class, name *object.String) *RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := object.NewBoundMethod(vm.peek(0), method.(*object.Closure))
	vm.track(bound)
	vm.pop()
	vm.push(bound)
	return nil
}

// --- upvalue lifecycle -----------------------------------------------------

// captureUpvalue returns the open upvalue for slot, reusing one already
// in vm.openUpvalues if present, else inserting a new one while
// preserving the list's strictly-descending-by-location invariant
// (spec.md §3 invariants, §8 property 2). Go pointers support no
// ordering operators, so addrOf compares locations by address via
// unsafe.Pointer, exactly as clox compares raw C pointers.
func (vm *VM) captureUpvalue(slot int) *object.Upvalue {
	target := &vm.stack[slot]

	var prev *object.Upvalue
	cur := vm.openUpvalues
	for cur != nil && addrOf(cur.Location) > addrOf(target) {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.Location == target {
		return cur
	}

	created := object.NewUpvalue(target)
	vm.track(created)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues hoists every open upvalue at or above boundary into its
// own heap cell, per spec.md §4.3.
func (vm *VM) closeUpvalues(boundary int) {
	target := &vm.stack[boundary]
	for vm.openUpvalues != nil && addrOf(vm.openUpvalues.Location) >= addrOf(target) {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.NextOpen
	}
}

func addrOf(p *value.Value) uintptr { return uintptr(unsafe.Pointer(p)) }
