package io

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/circuitdag/pkg/circuit"
	apperr "github.com/matzehuels/circuitdag/pkg/errors"
)

// Format identifies a program source format.
type Format string

const (
	FormatQASM Format = "qasm"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Formats lists the supported formats in a stable order.
var Formats = []Format{FormatQASM, FormatTOML, FormatJSON}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatQASM, FormatTOML, FormatJSON:
		return f, nil
	case "openqasm":
		return FormatQASM, nil
	}
	return "", apperr.New(apperr.ErrCodeInvalidFormat, "unknown format %q (want qasm, toml or json)", s)
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".qasm", ".qasm2":
		return FormatQASM, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", apperr.New(apperr.ErrCodeInvalidFormat, "cannot infer format of %s; use --format", filepath.Base(path))
}

// Parse decodes src in the given format.
func Parse(src []byte, f Format) (*circuit.Circuit, error) {
	if err := apperr.ValidateSource(src); err != nil {
		return nil, err
	}
	switch f {
	case FormatQASM:
		return ParseQASM(string(src))
	case FormatTOML:
		return ReadTOML(bytes.NewReader(src))
	case FormatJSON:
		return ReadJSON(bytes.NewReader(src))
	}
	return nil, apperr.New(apperr.ErrCodeInvalidFormat, "unknown format %q", f)
}

// Read reads all of r and decodes it in the given format. Read does not
// close r.
func Read(r io.Reader, f Format) (*circuit.Circuit, error) {
	src, err := io.ReadAll(io.LimitReader(r, apperr.MaxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Parse(src, f)
}

// Load reads the program at path. An empty format is derived from the file
// extension. Load returns the raw source alongside the program so callers
// can hash it.
func Load(path string, f Format) (*circuit.Circuit, []byte, error) {
	if err := apperr.ValidatePath(path); err != nil {
		return nil, nil, err
	}
	if f == "" {
		var err error
		if f, err = FormatFromPath(path); err != nil {
			return nil, nil, err
		}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "program %s not found", path)
		}
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	c, err := Parse(src, f)
	if err != nil {
		return nil, nil, err
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, src, nil
}
