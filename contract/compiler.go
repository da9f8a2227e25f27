package contract

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/covenantlabs/libcovenant-go/address"
)

// CompileResult is the output of the compiler boundary: the commitment root
// uniquely identifying the compiled logic, and the opaque bytecode revealed
// at spend time.
type CompileResult struct {
	Root     [32]byte
	Bytecode []byte
}

// Compiler is the commitment-compiler boundary. Implementations turn
// validated program source plus bound compile-time arguments into bytecode
// and a commitment root. Compile must be pure: identical inputs must yield
// bit-identical results.
type Compiler interface {
	Compile(source string, args Arguments) (*CompileResult, error)
}

// commitTag is the domain tag for commitment roots produced by the built-in
// compiler.
const commitTag = "Covenant/commit"

// commitCompiler is the built-in deterministic compiler. It encodes the
// program source and bound arguments into a canonical byte form and commits
// to it with a tagged hash. Callers embedding a full language toolchain
// replace it via WithCompiler.
type commitCompiler struct{}

var defaultCompiler Compiler = commitCompiler{}

// Compile produces canonical bytecode and its commitment root.
func (commitCompiler) Compile(source string, args Arguments) (*CompileResult, error) {
	var buf bytes.Buffer
	buf.WriteString("covenant-program/v1")
	buf.WriteByte(0x00)

	writeChunk(&buf, []byte(source))

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(names)))
	buf.Write(count[:])

	for _, name := range names {
		val := args[name]
		writeChunk(&buf, []byte(name))
		buf.WriteByte(byte(val.Type()))
		writeChunk(&buf, val.Encode())
	}

	bytecode := buf.Bytes()
	return &CompileResult{
		Root:     address.TaggedHash(commitTag, bytecode),
		Bytecode: bytecode,
	}, nil
}

// writeChunk writes a 4-byte big-endian length prefix followed by data.
func writeChunk(buf *bytes.Buffer, data []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	buf.Write(n[:])
	buf.Write(data)
}
