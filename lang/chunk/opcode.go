package chunk

// OpCode identifies a single bytecode instruction. Every opcode is one
// byte; operands, where present, follow inline in the code stream (see
// the comment on each constant for its operand shape).
type OpCode byte

//nolint:revive
const (
	CONSTANT      OpCode = iota // u8 idx
	NIL                         //  -
	TRUE                        //  -
	FALSE                       //  -
	POP                         //  -
	GET_LOCAL                   // u8 slot
	SET_LOCAL                   // u8 slot
	GET_GLOBAL                  // u8 name-const
	DEFINE_GLOBAL               // u8 name-const
	SET_GLOBAL                  // u8 name-const
	GET_UPVALUE                 // u8 idx
	SET_UPVALUE                 // u8 idx
	GET_PROPERTY                // u8 name-const
	SET_PROPERTY                // u8 name-const
	GET_SUPER                   // u8 name-const
	EQUAL                       //  -
	GREATER                     //  -
	LESS                        //  -
	ADD                         //  -
	SUBTRACT                    //  -
	MULTIPLY                    //  -
	DIVIDE                      //  -
	NOT                         //  -
	NEGATE                      //  -
	PRINT                       //  -
	JUMP                        // u16 offset
	JUMP_IF_FALSE               // u16 offset
	LOOP                        // u16 offset
	CALL                        // u8 argc
	INVOKE                      // u8 name-const, u8 argc
	SUPER_INVOKE                // u8 name-const, u8 argc
	CLOSURE                     // u8 fn-const, then 2*upvalueCount bytes
	CLOSE_UPVALUE               //  -
	RETURN                      //  -
	CLASS                       // u8 name-const
	INHERIT                     //  -
	METHOD                      // u8 name-const
)

var names = [...]string{
	CONSTANT:      "OP_CONSTANT",
	NIL:           "OP_NIL",
	TRUE:          "OP_TRUE",
	FALSE:         "OP_FALSE",
	POP:           "OP_POP",
	GET_LOCAL:     "OP_GET_LOCAL",
	SET_LOCAL:     "OP_SET_LOCAL",
	GET_GLOBAL:    "OP_GET_GLOBAL",
	DEFINE_GLOBAL: "OP_DEFINE_GLOBAL",
	SET_GLOBAL:    "OP_SET_GLOBAL",
	GET_UPVALUE:   "OP_GET_UPVALUE",
	SET_UPVALUE:   "OP_SET_UPVALUE",
	GET_PROPERTY:  "OP_GET_PROPERTY",
	SET_PROPERTY:  "OP_SET_PROPERTY",
	GET_SUPER:     "OP_GET_SUPER",
	EQUAL:         "OP_EQUAL",
	GREATER:       "OP_GREATER",
	LESS:          "OP_LESS",
	ADD:           "OP_ADD",
	SUBTRACT:      "OP_SUBTRACT",
	MULTIPLY:      "OP_MULTIPLY",
	DIVIDE:        "OP_DIVIDE",
	NOT:           "OP_NOT",
	NEGATE:        "OP_NEGATE",
	PRINT:         "OP_PRINT",
	JUMP:          "OP_JUMP",
	JUMP_IF_FALSE: "OP_JUMP_IF_FALSE",
	LOOP:          "OP_LOOP",
	CALL:          "OP_CALL",
	INVOKE:        "OP_INVOKE",
	SUPER_INVOKE:  "OP_SUPER_INVOKE",
	CLOSURE:       "OP_CLOSURE",
	CLOSE_UPVALUE: "OP_CLOSE_UPVALUE",
	RETURN:        "OP_RETURN",
	CLASS:         "OP_CLASS",
	INHERIT:       "OP_INHERIT",
	METHOD:        "OP_METHOD",
}

func (op OpCode) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "OP_UNKNOWN"
}
