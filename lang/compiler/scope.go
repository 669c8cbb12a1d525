package compiler

import (
	"github.com/ravener/clox/lang/chunk"
	"github.com/ravener/clox/lang/token"
)

const maxLocals = 256
const maxUpvalues = 256

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

// endScope pops every local declared at the scope being closed, emitting
// POP for an uncaptured local or CLOSE_UPVALUE for one some nested
// closure captured — the runtime lifecycle that hoists a captured local
// off the stack and into its own heap cell.
func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	locals := c.fs.locals
	for len(locals) > 0 && locals[len(locals)-1].Depth > c.fs.scopeDepth {
		if locals[len(locals)-1].IsCaptured {
			c.emitOp(chunk.CLOSE_UPVALUE)
		} else {
			c.emitOp(chunk.POP)
		}
		locals = locals[:len(locals)-1]
	}
	c.fs.locals = locals
}

// declareVariable registers name as a new local in the current scope.
// Globals never reach here: at scope depth 0 the caller keeps the name
// as a global instead. Redeclaring the same name twice in the same
// scope is a compile error.
func (c *Compiler) declareVariable(name token.Token) {
	if c.fs.scopeDepth == 0 {
		return
	}
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		local := c.fs.locals[i]
		if local.Depth != -1 && local.Depth < c.fs.scopeDepth {
			break
		}
		if local.Name.Lexeme == name.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

// addLocal appends name as an uninitialized local (Depth -1, marked
// initialized only once its declaring statement's initializer has fully
// compiled — this is what makes `var a = a;` inside a scope a compile
// error rather than a read of itself).
func (c *Compiler) addLocal(name token.Token) {
	if len(c.fs.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fs.locals = append(c.fs.locals, Local{Name: name, Depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.fs.scopeDepth == 0 {
		return
	}
	c.fs.locals[len(c.fs.locals)-1].Depth = c.fs.scopeDepth
}

// resolveLocal searches fs's own locals for name, returning its slot
// index or -1 if not found there.
func resolveLocal(fs *funcState, name token.Token) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].Name.Lexeme == name.Lexeme {
			return i
		}
	}
	return -1
}

// resolveUpvalue implements capture-by-need: if name is a local of the
// immediately enclosing function, it is marked captured and a new
// IsLocal upvalue slot is allocated; otherwise the search recurses into
// the enclosing function's own upvalues, allocating a non-local slot
// that inherits from there. Duplicate captures of the same source return
// the existing slot instead of allocating a new one, which is what lets
// two closures over the same function share one upvalue object at
// runtime.
func resolveUpvalue(fs *funcState, name token.Token) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := resolveLocal(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].IsCaptured = true
		return addUpvalue(fs, uint8(local), true)
	}
	if up := resolveUpvalue(fs.enclosing, name); up != -1 {
		return addUpvalue(fs, uint8(up), false)
	}
	return -1
}

func addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		return 0
	}
	fs.upvalues = append(fs.upvalues, UpvalueRef{Index: index, IsLocal: isLocal})
	return len(fs.upvalues) - 1
}
