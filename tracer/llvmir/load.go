package llvmir

import (
	"bytes"
	"io"
	"io/ioutil"
	"os/exec"
	"strings"

	"github.com/llir/llvm/asm"
	"github.com/pkg/errors"
	"github.com/yuuki0xff/bbtrace/info"
)

var (
	bitcodeMagic        = []byte{'B', 'C', 0xc0, 0xde}
	bitcodeWrapperMagic = []byte{0xde, 0xc0, 0x17, 0x0b}
)

// Tools names the LLVM tools used to convert between bitcode and text.
type Tools struct {
	As  string
	Dis string
}

func (t Tools) as() string {
	if t.As == "" {
		return info.DefaultLLVMAs
	}
	return t.As
}

func (t Tools) dis() string {
	if t.Dis == "" {
		return info.DefaultLLVMDis
	}
	return t.Dis
}

// run pipes in through tool and returns its standard output.
func (Tools) run(tool string, in []byte) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	// ignore an error of "Subprocess launching with variable" because the tool is specified by the trusted user.
	cmd := exec.Command(tool, "-o", "-") // nolint: gas
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, errors.Wrapf(err, "failed to run %s", tool)
		}
		return nil, errors.Wrapf(err, "failed to run %s: %s", tool, msg)
	}
	return stdout.Bytes(), nil
}

// IsBitcode reports whether data starts with an LLVM bitcode signature.
func IsBitcode(data []byte) bool {
	return bytes.HasPrefix(data, bitcodeMagic) || bytes.HasPrefix(data, bitcodeWrapperMagic)
}

// Load reads a module from path, or from stdin if path is "-".
// Bitcode input is disassembled with the llvm-dis tool first.
// The module is named after path, as LLVM names modules after their file.
func Load(path string, stdin io.Reader, tools Tools) (*Module, error) {
	var data []byte
	var err error
	name := path
	if path == info.Stdio {
		name = info.StdinModuleName
		data, err = ioutil.ReadAll(stdin)
	} else {
		data, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	return Parse(name, data, tools)
}

// Parse parses textual or binary IR named name.
func Parse(name string, data []byte, tools Tools) (*Module, error) {
	if IsBitcode(data) {
		text, err := tools.run(tools.dis(), data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to disassemble %s", name)
		}
		data = text
	}
	m, err := asm.ParseBytes(name, data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", name)
	}
	return NewModule(m, name), nil
}

// Encode writes m to w as text, or as bitcode assembled by the llvm-as tool.
func Encode(w io.Writer, m *Module, textual bool, tools Tools) error {
	text := m.String()
	if textual {
		_, err := io.WriteString(w, text)
		return err
	}
	bc, err := tools.run(tools.as(), []byte(text))
	if err != nil {
		return errors.Wrapf(err, "failed to assemble %s", m.Name())
	}
	_, err = w.Write(bc)
	return err
}
