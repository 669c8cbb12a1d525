package vm_test

import (
	"bytes"
	"testing"

	"github.com/ravener/clox/lang/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run interprets source under the given dispatch strategy and returns
// everything printed to stdout.
func run(t *testing.T, dispatch vm.Dispatch, source string) (string, vm.Result, error) {
	t.Helper()
	var out bytes.Buffer
	machine := vm.New()
	machine.Dispatch = dispatch
	machine.Stdout = &out
	result, err := machine.Interpret(source)
	return out.String(), result, err
}

// bothDispatches runs source under both strategies and asserts they
// produce byte-identical stdout, per spec.md §8's "each scenario must
// pass identically under both dispatch strategies."
func bothDispatches(t *testing.T, source, want string) {
	t.Helper()
	for _, d := range []vm.Dispatch{vm.DispatchSwitch, vm.DispatchThreaded} {
		out, result, err := run(t, d, source)
		require.NoError(t, err)
		assert.Equal(t, vm.OK, result)
		assert.Equal(t, want, out)
	}
}

func TestArithmeticAndPrecedence(t *testing.T) {
	bothDispatches(t, `print 1 + 2 * 3 - 4 / 2;`, "5\n")
}

func TestClosureCounter(t *testing.T) {
	bothDispatches(t, `
fun makeCounter() {
  var n = 0;
  fun c() {
    n = n + 1;
    return n;
  }
  return c;
}
var c = makeCounter();
print c();
print c();
print c();
`, "1\n2\n3\n")
}

func TestInheritanceAndSuper(t *testing.T) {
	bothDispatches(t, `
class A {
  greet() { print "A"; }
}
class B < A {
  greet() { super.greet(); print "B"; }
}
B().greet();
`, "A\nB\n")
}

func TestInitializerReturnsThis(t *testing.T) {
	bothDispatches(t, `
class P {
  init(x) { this.x = x; }
}
print P(42).x;
`, "42\n")
}

func TestStringConcatAndInterning(t *testing.T) {
	bothDispatches(t, `print "foo" + "bar" == "foobar";`, "true\n")
}

func TestTernaryAndHex(t *testing.T) {
	bothDispatches(t, `print 0xFF > 0 ? "yes" : "no";`, "yes\n")
}

func TestDoubleNegationLawMatchesTruthy(t *testing.T) {
	bothDispatches(t, `print !!nil;`, "false\n")
	bothDispatches(t, `print !!false;`, "false\n")
	bothDispatches(t, `print !!0;`, "true\n")
	bothDispatches(t, `print !!"";`, "true\n")
}

func TestRuntimeErrorReportsBacktraceInnermostFirst(t *testing.T) {
	source := `
fun inner() {
  return 1 + "x";
}
fun outer() {
  return inner();
}
outer();
`
	_, result, err := run(t, vm.DispatchSwitch, source)
	assert.Equal(t, vm.RuntimeErr, result)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	require.Len(t, rerr.StackTrace, 3)
	assert.Equal(t, "inner()", rerr.StackTrace[0].Name)
	assert.Equal(t, "outer()", rerr.StackTrace[1].Name)
	assert.Equal(t, "script", rerr.StackTrace[2].Name)
}

func TestAssignToUndefinedGlobalIsError(t *testing.T) {
	_, result, err := run(t, vm.DispatchSwitch, `x = 1;`)
	assert.Equal(t, vm.RuntimeErr, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable")
}

func TestCompileErrorNeverReachesDispatchLoop(t *testing.T) {
	_, result, err := run(t, vm.DispatchSwitch, `var ;`)
	assert.Equal(t, vm.CompileError, result)
	require.Error(t, err)
}

func TestReplSharesGlobalsAcrossInterpretCalls(t *testing.T) {
	var out bytes.Buffer
	machine := vm.New()
	machine.Stdout = &out

	_, err := machine.Interpret(`var count = 0;`)
	require.NoError(t, err)
	_, err = machine.Interpret(`count = count + 1; print count;`)
	require.NoError(t, err)
	_, err = machine.Interpret(`count = count + 1; print count;`)
	require.NoError(t, err)

	assert.Equal(t, "1\n2\n", out.String())
}

func TestNativeClockReturnsANumber(t *testing.T) {
	out, result, err := run(t, vm.DispatchSwitch, `print clock() >= 0;`)
	require.NoError(t, err)
	assert.Equal(t, vm.OK, result)
	assert.Equal(t, "true\n", out)
}

func TestNativeGCHeapSizeAccountsForAllocations(t *testing.T) {
	// Split across separate Interpret calls (REPL style): a single
	// source blob is compiled entirely before anything runs, so a
	// string literal appearing later in the same blob is already
	// interned by the time an earlier statement's gcHeapSize() read
	// executes. Splitting makes "before" observe a heap that genuinely
	// predates the new string's allocation.
	var out bytes.Buffer
	machine := vm.New()
	machine.Stdout = &out

	_, err := machine.Interpret(`var before = gcHeapSize();`)
	require.NoError(t, err)
	_, err = machine.Interpret(`var s = "some freshly allocated string";`)
	require.NoError(t, err)
	_, err = machine.Interpret(`print gcHeapSize() > before;`)
	require.NoError(t, err)

	assert.Equal(t, "true\n", out.String())
}

func TestGCCollectIsIdempotentWithNoNewGarbage(t *testing.T) {
	out, result, err := run(t, vm.DispatchSwitch, `
var first = gc();
var second = gc();
print second;
`)
	require.NoError(t, err)
	assert.Equal(t, vm.OK, result)
	assert.Equal(t, "0\n", out)
}
