// Package asm implements the two-pass assembler for the register
// machine ISA: label resolution, a .data preload block, and
// instruction encoding keyed off isa.Table.
//
// Grounded on original_source/asm.py's two-pass structure (labels
// collected in a first pass, the data block's length then shifting
// every label before the second pass emits code) and on the teacher's
// line-oriented parsing style in config/configparser/configparser.go
// (skipSpace/getName-style small helpers over a []byte/string cursor,
// rather than a generated lexer).
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"gavm/isa"
)

// Error reports an assembly failure with the 1-based source line it
// occurred on, formatted as "line N: message".
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type dataPair struct {
	addr, val uint8
}

type codeLine struct {
	line      int
	mnemonic  string
	operands  []string
}

// Assemble converts assembly source into the assembled byte program:
// an optional sentinel-prefixed data-preload block followed by code.
func Assemble(source string) ([]byte, error) {
	lines := strings.Split(source, "\n")

	labels := map[string]int{}
	var data []dataPair
	var code []codeLine

	inData := false
	pc := 0

	for lineNum, raw := range lines {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case ".data":
			inData = true
			continue
		case ".text":
			inData = false
			continue
		}

		if inData {
			pairs, err := parseDataLine(line)
			if err != nil {
				return nil, &Error{lineNum + 1, err.Error()}
			}
			data = append(data, pairs...)
			continue
		}

		if label, ok := parseLabel(line); ok {
			lower := strings.ToLower(label)
			if _, exists := labels[lower]; exists {
				return nil, &Error{lineNum + 1, fmt.Sprintf("duplicate label %q", label)}
			}
			labels[lower] = pc
			continue
		}

		mnemonic, operands := splitInstruction(line)
		code = append(code, codeLine{lineNum + 1, mnemonic, operands})
		pc += isa.InstructionLength
	}

	var out []byte
	if len(data) > 0 {
		out = append(out, isa.PreloadSentinel[0], isa.PreloadSentinel[1])
		for _, p := range data {
			out = append(out, p.addr, p.val)
		}
		out = append(out, 0, 0)
	}

	dataLen := len(out)
	for k := range labels {
		labels[k] += dataLen
	}

	for _, c := range code {
		word, err := assembleLine(c, labels)
		if err != nil {
			return nil, err
		}
		out = append(out, word[0], word[1])
	}

	return out, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// parseLabel recognizes a bare "name:" line.
func parseLabel(line string) (string, bool) {
	if !strings.HasSuffix(line, ":") {
		return "", false
	}
	name := line[:len(line)-1]
	if name == "" || strings.ContainsAny(name, " \t,") {
		return "", false
	}
	return name, true
}

func splitInstruction(line string) (mnemonic string, operands []string) {
	fields := strings.SplitN(line, " ", 2)
	mnemonic = strings.ToUpper(strings.TrimSpace(fields[0]))
	if len(fields) == 1 {
		return mnemonic, nil
	}
	for _, op := range strings.Split(fields[1], ",") {
		op = strings.TrimSpace(op)
		if op != "" {
			operands = append(operands, op)
		}
	}
	return mnemonic, operands
}

func parseDataLine(line string) ([]dataPair, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed data directive: %q", line)
	}
	kind := strings.ToLower(fields[0])

	switch kind {
	case "byte":
		// "byte ADDR, VAL" - comma-separated like a normal instruction's
		// operand list, so split the same way rather than on whitespace
		// (strings.Fields would otherwise glue the comma onto ADDR).
		rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		parts := strings.SplitN(rest, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed byte directive: %q", line)
		}
		addr, err := parseOperand(strings.TrimSpace(parts[0]), nil)
		if err != nil {
			return nil, err
		}
		val, err := parseOperand(strings.TrimSpace(parts[1]), nil)
		if err != nil {
			return nil, err
		}
		return []dataPair{{uint8(addr), uint8(val)}}, nil

	case "str":
		if len(fields) < 3 {
			return nil, fmt.Errorf("malformed str directive: %q", line)
		}
		addr, err := parseOperand(fields[1], nil)
		if err != nil {
			return nil, err
		}
		toks := tokenizeStr(strings.Join(fields[2:], " "))
		pairs := make([]dataPair, 0, len(toks))
		for i, tok := range toks {
			val, err := parseOperand(tok, nil)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, dataPair{uint8(addr + int64(i)), uint8(val)})
		}
		return pairs, nil

	default:
		return nil, fmt.Errorf("unknown data directive %q", fields[0])
	}
}

// tokenizeStr splits a str directive's value list into individual
// literals, keeping quoted character literals (which may contain
// spaces inside the quotes, e.g. "' '") intact.
func tokenizeStr(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}
		if s[i] == '\'' {
			j := i + 1
			for j < len(s) && s[j] != '\'' {
				j++
			}
			if j < len(s) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
			continue
		}
		j := i
		for j < len(s) && s[j] != ' ' {
			j++
		}
		toks = append(toks, s[i:j])
		i = j
	}
	return toks
}

func assembleLine(c codeLine, labels map[string]int) ([2]byte, error) {
	op, ok := isa.ByMnemonic[c.mnemonic]
	if !ok {
		return [2]byte{}, &Error{c.line, fmt.Sprintf("unknown mnemonic %q", c.mnemonic)}
	}

	var d, s uint8
	var imm int32

	switch op.Shape {
	case isa.ShapeI:
		if len(c.operands) > 0 {
			v, err := parseOperand(c.operands[0], labels)
			if err != nil {
				return [2]byte{}, &Error{c.line, err.Error()}
			}
			imm = int32(v)
		}

	case isa.ShapeRI:
		if len(c.operands) != 2 {
			return [2]byte{}, &Error{c.line, fmt.Sprintf("%s requires 2 operands", c.mnemonic)}
		}
		dv, err := parseOperand(c.operands[0], labels)
		if err != nil {
			return [2]byte{}, &Error{c.line, err.Error()}
		}
		iv, err := parseOperand(c.operands[1], labels)
		if err != nil {
			return [2]byte{}, &Error{c.line, err.Error()}
		}
		d, imm = uint8(dv), int32(iv)

	case isa.ShapeRRI:
		if len(c.operands) < 2 || len(c.operands) > 3 {
			return [2]byte{}, &Error{c.line, fmt.Sprintf("%s requires 2 or 3 operands", c.mnemonic)}
		}
		dv, err := parseOperand(c.operands[0], labels)
		if err != nil {
			return [2]byte{}, &Error{c.line, err.Error()}
		}
		sv, err := parseOperand(c.operands[1], labels)
		if err != nil {
			return [2]byte{}, &Error{c.line, err.Error()}
		}
		d, s = uint8(dv), uint8(sv)
		if len(c.operands) == 3 {
			iv, err := parseOperand(c.operands[2], labels)
			if err != nil {
				return [2]byte{}, &Error{c.line, err.Error()}
			}
			imm = int32(iv)
		}
	}

	return isa.Encode(op.Op, op.Shape, d, s, imm), nil
}

var escapes = map[byte]byte{'n': '\n', 't': '\t', 'r': '\r', '\\': '\\', '\'': '\''}

// parseOperand resolves one operand token: a character literal, a
// label reference, a register ("r3"), a hex/binary literal, or a
// decimal integer, matching asm.py's parse_operand.
func parseOperand(tok string, labels map[string]int) (int64, error) {
	tok = strings.TrimSpace(tok)
	lower := strings.ToLower(tok)

	if strings.HasPrefix(tok, "'") && strings.HasSuffix(tok, "'") && len(tok) >= 3 {
		inner := tok[1 : len(tok)-1]
		if len(inner) == 1 {
			return int64(inner[0]), nil
		}
		if len(inner) == 2 && inner[0] == '\\' {
			if esc, ok := escapes[inner[1]]; ok {
				return int64(esc), nil
			}
		}
		return 0, fmt.Errorf("invalid character literal: %s", tok)
	}

	if labels != nil {
		if v, ok := labels[lower]; ok {
			return int64(v), nil
		}
	}

	if strings.HasPrefix(lower, "r") {
		n, err := strconv.ParseInt(tok[1:], 10, 32)
		if err == nil {
			return n, nil
		}
	}
	if strings.HasPrefix(lower, "0x") {
		n, err := strconv.ParseInt(tok[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex literal: %s", tok)
		}
		return n, nil
	}
	if strings.HasPrefix(lower, "0b") {
		n, err := strconv.ParseInt(tok[2:], 2, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid binary literal: %s", tok)
		}
		return n, nil
	}

	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid operand: %s", tok)
	}
	return n, nil
}
