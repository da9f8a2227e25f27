package contract

import (
	"fmt"
	"os"
	"strings"
)

// Contract is an immutable handle to uncompiled program source. It knows the
// program's declared parameters and witness schema but not its meaning; full
// semantic analysis belongs to the compiler boundary.
type Contract struct {
	source   string
	params   map[string]ValueType
	witness  Schema
	compiler Compiler
}

// Option configures contract loading.
type Option func(*Contract)

// WithCompiler overrides the compiler boundary used by Instantiate.
func WithCompiler(c Compiler) Option {
	return func(ct *Contract) { ct.compiler = c }
}

// FromSource loads a contract from inline program text. The source is scanned
// for `param NAME: type;` and `witness NAME: type;` declarations and checked
// for balanced delimiters and an `fn main` entry point. Malformed input is
// rejected with ErrParse.
func FromSource(source string, opts ...Option) (*Contract, error) {
	c := &Contract{
		source:   source,
		params:   make(map[string]ValueType),
		witness:  make(Schema),
		compiler: defaultCompiler,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.scan(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromFile loads a contract from a source file on disk.
func FromFile(path string, opts ...Option) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("contract: read %s: %w", path, err)
	}
	return FromSource(string(data), opts...)
}

// Source returns the program source text.
func (c *Contract) Source() string { return c.source }

// Params returns a copy of the declared compile-time parameters.
func (c *Contract) Params() map[string]ValueType {
	out := make(map[string]ValueType, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

// WitnessSchema returns a copy of the declared witness schema.
func (c *Contract) WitnessSchema() Schema { return c.witness.clone() }

// scan validates the source and extracts parameter and witness declarations.
func (c *Contract) scan() error {
	if strings.TrimSpace(c.source) == "" {
		return fmt.Errorf("%w: empty source", ErrParse)
	}
	if err := checkBalance(c.source); err != nil {
		return err
	}

	hasMain := false
	for lineNo, line := range strings.Split(c.source, "\n") {
		line = stripComment(line)
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "fn ") {
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "fn "))
			if strings.HasPrefix(name, "main(") || strings.HasPrefix(name, "main ") {
				hasMain = true
			}
			continue
		}

		var decl map[string]ValueType
		var rest string
		switch {
		case strings.HasPrefix(trimmed, "param "):
			decl, rest = c.params, strings.TrimPrefix(trimmed, "param ")
		case strings.HasPrefix(trimmed, "witness "):
			decl, rest = c.witness, strings.TrimPrefix(trimmed, "witness ")
		default:
			continue
		}

		name, typ, err := parseDecl(rest)
		if err != nil {
			return fmt.Errorf("%w (line %d)", err, lineNo+1)
		}
		if _, dup := c.params[name]; dup {
			return fmt.Errorf("%w: duplicate declaration %q (line %d)", ErrParse, name, lineNo+1)
		}
		if _, dup := c.witness[name]; dup {
			return fmt.Errorf("%w: duplicate declaration %q (line %d)", ErrParse, name, lineNo+1)
		}
		decl[name] = typ
	}

	if !hasMain {
		return fmt.Errorf("%w: missing fn main entry point", ErrParse)
	}
	return nil
}

// parseDecl parses the `NAME: type;` tail of a declaration line.
func parseDecl(rest string) (string, ValueType, error) {
	rest = strings.TrimSpace(rest)
	if !strings.HasSuffix(rest, ";") {
		return "", 0, fmt.Errorf("%w: declaration must end with ';'", ErrParse)
	}
	rest = strings.TrimSuffix(rest, ";")

	name, typeName, ok := strings.Cut(rest, ":")
	if !ok {
		return "", 0, fmt.Errorf("%w: declaration missing ':'", ErrParse)
	}
	name = strings.TrimSpace(name)
	if !validIdent(name) {
		return "", 0, fmt.Errorf("%w: invalid identifier %q", ErrParse, name)
	}
	typ, err := ParseValueType(strings.TrimSpace(typeName))
	if err != nil {
		return "", 0, err
	}
	return name, typ, nil
}

// validIdent reports whether s is a valid declaration identifier.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		digit := r >= '0' && r <= '9'
		if !alpha && !(digit && i > 0) {
			return false
		}
	}
	return true
}

// stripComment removes a trailing // comment, ignoring slashes inside
// double-quoted strings.
func stripComment(line string) string {
	inStr := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			inStr = !inStr
		case !inStr && line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

// checkBalance verifies that (), {} and [] nest correctly across the source,
// skipping comments and double-quoted strings.
func checkBalance(source string) error {
	var stack []byte
	pairs := map[byte]byte{')': '(', '}': '{', ']': '['}

	for _, line := range strings.Split(source, "\n") {
		line = stripComment(line)
		inStr := false
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if ch == '"' {
				inStr = !inStr
				continue
			}
			if inStr {
				continue
			}
			switch ch {
			case '(', '{', '[':
				stack = append(stack, ch)
			case ')', '}', ']':
				if len(stack) == 0 || stack[len(stack)-1] != pairs[ch] {
					return fmt.Errorf("%w: unbalanced %q", ErrParse, ch)
				}
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%w: unclosed %q", ErrParse, stack[len(stack)-1])
	}
	return nil
}

// Instantiate binds compile-time arguments and invokes the compiler boundary,
// producing an immutable CompiledContract. Every declared parameter must be
// bound with a value of the declared type, and no undeclared argument may be
// supplied. Instantiate performs no I/O; identical inputs always produce an
// identical commitment root and bytecode.
func (c *Contract) Instantiate(args Arguments) (*CompiledContract, error) {
	for name, typ := range c.params {
		val, ok := args[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnboundParam, name)
		}
		if val.Type() != typ {
			return nil, fmt.Errorf("%w: %q declared %s, bound %s",
				ErrArgType, name, typ, val.Type())
		}
	}
	for name := range args {
		if _, ok := c.params[name]; !ok {
			return nil, fmt.Errorf("%w: %q is not a declared parameter", ErrArgType, name)
		}
	}

	result, err := c.compiler.Compile(c.source, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}

	return &CompiledContract{
		root:     result.Root,
		bytecode: append([]byte(nil), result.Bytecode...),
		schema:   c.witness.clone(),
	}, nil
}
