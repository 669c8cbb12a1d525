package vm

import (
	"os"
	"time"

	"github.com/ravener/clox/lang/object"
	"github.com/ravener/clox/lang/value"
)

var processStart = time.Now()

// defineNatives installs the four native functions spec.md §6 requires,
// grounded on the teacher's Universe/Predeclared builtin-installation
// pattern: each is wrapped as an object.Native and set directly into
// globals, bypassing DEFINE_GLOBAL since there is no user-visible
// declaration statement for a native.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", vm.nativeClock)
	vm.defineNative("exit", vm.nativeExit)
	vm.defineNative("gc", vm.nativeGC)
	vm.defineNative("gcHeapSize", vm.nativeGCHeapSize)
}

func (vm *VM) defineNative(name string, fn object.NativeFn) {
	native := object.NewNative(name, fn)
	vm.gc.NewObject(native)
	vm.globals.Set(vm.gc.InternString(name), native)
}

func (vm *VM) nativeClock(_ []value.Value) (value.Value, error) {
	return value.Number(time.Since(processStart).Seconds()), nil
}

// nativeExit terminates the process immediately, matching spec.md §6's
// "terminates process with code 0 after releasing VM resources" — the
// collector holds no external resources (file handles, sockets) for
// this VM, so there is nothing to release beyond the process exit
// itself.
func (vm *VM) nativeExit(_ []value.Value) (value.Value, error) {
	os.Exit(0)
	return value.Nil{}, nil
}

func (vm *VM) nativeGC(_ []value.Value) (value.Value, error) {
	freed := vm.gc.Collect()
	return value.Number(freed), nil
}

func (vm *VM) nativeGCHeapSize(_ []value.Value) (value.Value, error) {
	return value.Number(vm.gc.BytesAllocated()), nil
}
