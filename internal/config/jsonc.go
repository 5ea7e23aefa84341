package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errUnterminatedComment = errors.New("unterminated block comment in JSONC")

// cleanJSONC blanks comments and trailing commas with spaces. Newlines are
// kept, so decoder offsets still map to lines of the original file.
func cleanJSONC(src string) (string, error) {
	out := []byte(src)
	inString, escaped := false, false
	pendingComma := -1

	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
			pendingComma = -1
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			end := i
			for end < len(out) && out[end] != '\n' && out[end] != '\r' {
				end++
			}
			blank(out[i:end])
			i = end - 1
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			closing := strings.Index(src[i+2:], "*/")
			if closing < 0 {
				return "", errUnterminatedComment
			}
			end := i + 2 + closing + 2
			blank(out[i:end])
			i = end - 1
		case c == ',':
			pendingComma = i
		case c == '}' || c == ']':
			if pendingComma >= 0 {
				out[pendingComma] = ' '
			}
			pendingComma = -1
		case c == ' ' || c == '\n' || c == '\r' || c == '\t':
		default:
			pendingComma = -1
		}
	}

	return string(out), nil
}

func blank(b []byte) {
	for i, c := range b {
		if c != '\n' && c != '\r' && c != '\t' {
			b[i] = ' '
		}
	}
}

// decodeStrict decodes exactly one JSON object into v, rejecting unknown keys.
// Errors carry the line and column of the offending byte.
func decodeStrict(src string, v any) error {
	decoder := json.NewDecoder(strings.NewReader(src))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return withPosition(src, err)
	}

	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return withPosition(src, fmt.Errorf("multiple JSON values are not allowed"))
	default:
		return withPosition(src, err)
	}
}

func withPosition(src string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}

	pos := positionAt(src, offset)
	return fmt.Errorf("line %d column %d: %w", pos.line, pos.column, err)
}

type position struct {
	line   int
	column int
}

// positionAt converts the decoder's byte offset (just past the bad byte) to a
// 1-based line and column.
func positionAt(src string, offset int64) position {
	end := int(min(max(offset-1, 0), int64(len(src))))
	before := src[:end]
	line := strings.Count(before, "\n") + 1
	column := end - strings.LastIndexByte(before, '\n')
	return position{line: line, column: column}
}
