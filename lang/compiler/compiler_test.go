package compiler_test

import (
	"testing"

	"github.com/ravener/clox/lang/compiler"
	"github.com/ravener/clox/lang/gc"
	"github.com/ravener/clox/lang/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, source string) (*object.Function, error) {
	t.Helper()
	coll := gc.New(&object.Heap{})
	return compiler.Compile(source, coll)
}

func TestCompileSimpleExpression(t *testing.T) {
	fn, err := compile(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	require.NotNil(t, fn)
	assert.Greater(t, len(fn.Chunk.Code), 0)
}

func TestCompileReportsMultipleErrorsViaMultierror(t *testing.T) {
	_, err := compile(t, "var ; var ;")
	require.Error(t, err)
	// go-multierror: each independent panic-mode recovery point is a
	// distinct wrapped error, not just the first one encountered.
	assert.Contains(t, err.Error(), "2 errors occurred")
}

func TestCompileRejectsReturnAtTopLevel(t *testing.T) {
	_, err := compile(t, `return 1;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "return")
}

func TestCompileRejectsInitializerReturningValue(t *testing.T) {
	_, err := compile(t, `
class Foo {
  init() {
    return 1;
  }
}
`)
	require.Error(t, err)
}

func TestCompileRejectsReadingLocalInItsOwnInitializer(t *testing.T) {
	_, err := compile(t, `{ var a = a; }`)
	require.Error(t, err)
}

func TestCompileRejectsSuperOutsideClass(t *testing.T) {
	_, err := compile(t, `print super.foo();`)
	require.Error(t, err)
}

func TestCompileRejectsSelfInheritance(t *testing.T) {
	_, err := compile(t, `class Foo < Foo {}`)
	require.Error(t, err)
}

func TestCompileClosureOverLocal(t *testing.T) {
	fn, err := compile(t, `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}
`)
	require.NoError(t, err)
	require.NotNil(t, fn)
}

func TestCompileClassWithSuperclass(t *testing.T) {
	fn, err := compile(t, `
class Animal {
  speak() { print "..."; }
}
class Dog < Animal {
  speak() { super.speak(); }
}
`)
	require.NoError(t, err)
	require.NotNil(t, fn)
}

func TestCompileRecoversAfterErrorViaSynchronize(t *testing.T) {
	// the first statement is malformed but the second is well-formed;
	// synchronize() lets the compiler go on and parse it without a
	// further error. Any error still makes Compile return a nil function.
	fn, err := compile(t, `
var ;
print 1;
`)
	require.Error(t, err)
	require.Nil(t, fn)
	assert.Contains(t, err.Error(), "1 error occurred")
}
