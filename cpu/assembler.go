// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/chip8/memory"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass macro assembler for the instruction set.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	address int // Address of the next generated byte.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 0 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 <= 0xffffffff && v64 >= -int64(0x80000000) {
		if v64 < 0 {
			value = uint32(0xffffffff + (v64 + 1))
		} else {
			value = uint32(v64)
		}
	}

	if invert {
		value = ^value
	}

	return
}

// valueIn returns the value of a word, which must fit in bits.
// Negative values are accepted when their magnitude fits.
func (asm *Assembler) valueIn(word string, bits int) (value uint16, err error) {
	v32, err := asm.valueOf(word)
	if err != nil {
		return
	}

	limit := uint32(1) << bits
	if v32 >= limit && v32 < -(limit>>1) {
		err = fmt.Errorf("%w: %v", ErrValueRange, word)
		return
	}

	value = uint16(v32 & (limit - 1))
	return
}

// registerOf parses v0-vf.
func registerOf(word string) (reg uint16, ok bool) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		return
	}
	n, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		return
	}
	return uint16(n), true
}

// isLabel is true for words that can only be a label reference.
func isLabel(word string) bool {
	if len(word) == 0 {
		return false
	}
	c := word[0]
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(int64(value32))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
)

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	invoked := lineno

	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.address
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// '@' names are local to each expansion.
		local := fmt.Sprintf("%v_%v_", name, invoked)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.Opcode = asm.Opcode[:0]
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.address = memory.PROGRAM_START

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if err = scanner.Err(); err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	if asm.address > memory.SIZE {
		err = ErrProgramSize
		return
	}

	// Final linking of address labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		linked := &op.Codes[len(op.Codes)-1]
		*linked |= Code(addr & 0xfff)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// argCount checks that exactly count operands follow the mnemonic.
func argCount(words []string, count int) (err error) {
	switch {
	case len(words)-1 < count:
		err = ErrOpcodeValueMissing
	case len(words)-1 > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// register parses a register operand.
func register(word string) (reg uint16, err error) {
	reg, ok := registerOf(word)
	if !ok {
		err = fmt.Errorf("%w: %v", ErrRegisterInvalid, word)
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || (len(codes) == 0 && len(data) == 0) {
			return
		}
		opcode := Opcode{LineNo: lineno, Address: asm.address, Words: initial_words, Codes: codes, Data: data, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.address += opcode.Size()
	}()

	// address parses a 12-bit address, or defers a label to link time.
	address := func(word string) (addr uint16, err error) {
		if isLabel(word) {
			label = word
			return
		}
		return asm.valueIn(word, 12)
	}

	mnemonic := strings.ToLower(words[0])
	args := make([]string, len(words)-1)
	for n, word := range words[1:] {
		args[n] = strings.ToLower(word)
	}
	arg := func(n int) string {
		if n < len(args) {
			return args[n]
		}
		return ""
	}

	// Operand forms shared by several mnemonics.
	xy := func(op Op) (err error) {
		x, err := register(arg(0))
		if err != nil {
			return
		}
		y, err := register(arg(1))
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(op, x, y))
		return
	}
	xnn := func(op Op) (err error) {
		x, err := register(arg(0))
		if err != nil {
			return
		}
		nn, err := asm.valueIn(words[2], 8)
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(op, x, nn))
		return
	}
	justX := func(op Op) (err error) {
		x, err := register(args[len(args)-1])
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(op, x))
		return
	}
	// Second operand is either a register or an immediate byte.
	regOrByte := func(reg Op, imm Op) (err error) {
		err = argCount(words, 2)
		if err != nil {
			return
		}
		if _, ok := registerOf(arg(1)); ok {
			return xy(reg)
		}
		return xnn(imm)
	}

	switch mnemonic {
	case "cls", "ret":
		err = argCount(words, 0)
		if err != nil {
			return
		}
		if mnemonic == "cls" {
			codes = append(codes, MakeCode(OP_CLS))
		} else {
			codes = append(codes, MakeCode(OP_RET))
		}
	case "jp":
		var addr uint16
		switch len(args) {
		case 1:
			addr, err = address(words[1])
			if err != nil {
				return
			}
			codes = append(codes, MakeCode(OP_JP, addr))
		case 2:
			if arg(0) != "v0" {
				err = fmt.Errorf("%w: %v", ErrRegisterInvalid, words[1])
				return
			}
			addr, err = address(words[2])
			if err != nil {
				return
			}
			codes = append(codes, MakeCode(OP_JP_V0, addr))
		default:
			err = argCount(words, 1)
		}
	case "sys":
		// Machine code routines are not emulated; the word executes as unknown.
		err = argCount(words, 1)
		if err != nil {
			return
		}
		var addr uint16
		addr, err = address(words[1])
		if err != nil {
			return
		}
		codes = append(codes, Code(addr))
	case "call":
		err = argCount(words, 1)
		if err != nil {
			return
		}
		var addr uint16
		addr, err = address(words[1])
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(OP_CALL, addr))
	case "se":
		err = regOrByte(OP_SE_REG, OP_SE_BYTE)
	case "sne":
		err = regOrByte(OP_SNE_REG, OP_SNE_BYTE)
	case "add":
		if arg(0) == "i" {
			err = argCount(words, 2)
			if err != nil {
				return
			}
			err = justX(OP_ADD_I)
			return
		}
		err = regOrByte(OP_ADD_REG, OP_ADD_BYTE)
	case "or", "and", "xor", "sub", "subn":
		err = argCount(words, 2)
		if err != nil {
			return
		}
		op := map[string]Op{
			"or":   OP_OR,
			"and":  OP_AND,
			"xor":  OP_XOR,
			"sub":  OP_SUB,
			"subn": OP_SUBN,
		}[mnemonic]
		err = xy(op)
	case "shr", "shl":
		op := OP_SHR
		if mnemonic == "shl" {
			op = OP_SHL
		}
		switch len(args) {
		case 1:
			err = justX(op)
		case 2:
			err = xy(op)
		default:
			err = argCount(words, 1)
		}
	case "rnd":
		err = argCount(words, 2)
		if err != nil {
			return
		}
		err = xnn(OP_RND)
	case "drw":
		err = argCount(words, 3)
		if err != nil {
			return
		}
		var x, y, n uint16
		x, err = register(arg(0))
		if err != nil {
			return
		}
		y, err = register(arg(1))
		if err != nil {
			return
		}
		n, err = asm.valueIn(words[3], 4)
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(OP_DRW, x, y, n))
	case "skp", "sknp":
		err = argCount(words, 1)
		if err != nil {
			return
		}
		if mnemonic == "skp" {
			err = justX(OP_SKP)
		} else {
			err = justX(OP_SKNP)
		}
	case "ld":
		err = argCount(words, 2)
		if err != nil {
			return
		}
		err = asm.parseLoad(words, args, &codes, address)
	case ".byte":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value uint16
			value, err = asm.valueIn(word, 8)
			if err != nil {
				return
			}
			data = append(data, byte(value))
		}
	case ".word":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value uint16
			value, err = asm.valueIn(word, 16)
			if err != nil {
				return
			}
			data = append(data, byte(value>>8), byte(value))
		}
	case ".org":
		err = argCount(words, 1)
		if err != nil {
			return
		}
		var addr uint16
		addr, err = asm.valueIn(words[1], 12)
		if err != nil {
			return
		}
		if int(addr) < asm.address {
			err = ErrOrgBackwards
			return
		}
		asm.address = int(addr)
	default:
		err = fmt.Errorf("%w: %v", ErrInstructionInvalid, words[0])
	}

	return
}

// parseLoad handles the many forms of 'ld'.
func (asm *Assembler) parseLoad(words []string, args []string, codes *[]Code, address func(string) (uint16, error)) (err error) {
	dst, src := args[0], args[1]

	var op Op
	var reg string
	switch dst {
	case "i":
		var addr uint16
		addr, err = address(words[2])
		if err != nil {
			return
		}
		*codes = append(*codes, MakeCode(OP_LD_I, addr))
		return
	case "dt":
		op, reg = OP_LD_DT_VX, src
	case "st":
		op, reg = OP_LD_ST_VX, src
	case "f":
		op, reg = OP_LD_F, src
	case "b":
		op, reg = OP_LD_B, src
	case "[i]":
		op, reg = OP_LD_MEM_VX, src
	default:
		switch src {
		case "dt":
			op, reg = OP_LD_VX_DT, dst
		case "k":
			op, reg = OP_LD_VX_K, dst
		case "[i]":
			op, reg = OP_LD_VX_MEM, dst
		}
	}

	if op != OP_UNKNOWN {
		var x uint16
		x, err = register(reg)
		if err != nil {
			return
		}
		*codes = append(*codes, MakeCode(op, x))
		return
	}

	x, err := register(dst)
	if err != nil {
		return
	}

	if y, ok := registerOf(src); ok {
		*codes = append(*codes, MakeCode(OP_LD_REG, x, y))
		return
	}

	nn, err := asm.valueIn(words[2], 8)
	if err != nil {
		return
	}
	*codes = append(*codes, MakeCode(OP_LD_BYTE, x, nn))

	return
}
