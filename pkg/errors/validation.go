package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxSourceBytes bounds the size of a single program source accepted by the
// loaders and the HTTP API.
const MaxSourceBytes = 4 << 20

// identifierRegex matches register and program identifiers.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier validates a register or program name. The kind names
// the identifier in the error message.
func ValidateIdentifier(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidProgram, "%s name cannot be empty", kind)
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidProgram, "%s name too long (max 128 characters)", kind)
	}
	if !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidProgram, "invalid %s name: %q", kind, name)
	}
	return nil
}

// ValidateRegisterSize rejects negative and unreasonably large registers.
func ValidateRegisterSize(name string, size int) error {
	const maxRegisterSize = 1 << 16
	if size < 0 {
		return New(ErrCodeInvalidProgram, "register %s has negative size %d", name, size)
	}
	if size > maxRegisterSize {
		return New(ErrCodeInvalidProgram, "register %s too large (max %d bits)", name, maxRegisterSize)
	}
	return nil
}

// ValidateSource checks a raw program source before parsing: non-empty,
// within MaxSourceBytes and free of null bytes.
func ValidateSource(src []byte) error {
	if len(strings.TrimSpace(string(src))) == 0 {
		return New(ErrCodeInvalidInput, "program source is empty")
	}
	if len(src) > MaxSourceBytes {
		return New(ErrCodeInvalidInput, "program source too large (max %d bytes)", MaxSourceBytes)
	}
	if strings.ContainsRune(string(src), '\x00') {
		return New(ErrCodeInvalidInput, "program source contains null bytes")
	}
	return nil
}

// ValidatePath validates a user-supplied file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
