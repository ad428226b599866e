package elevatebox

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ParseError is a content error tied to a position in a page source file.
type ParseError struct {
	File    string // Source file path
	Line    int    // Line number (1-indexed)
	Column  int    // Column number (1-indexed, optional)
	Message string
	Hint    string // Suggested fix
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return e.Format()
}

// Format renders the error with a few lines of surrounding source.
func (e *ParseError) Format() string {
	var b strings.Builder

	pos := e.File
	if pos == "" {
		pos = "<input>"
	}
	if e.Line > 0 {
		pos = fmt.Sprintf("%s:%d", pos, e.Line)
		if e.Column > 0 {
			pos = fmt.Sprintf("%s:%d", pos, e.Column)
		}
	}
	fmt.Fprintf(&b, "%s: %s\n", pos, e.Message)

	b.WriteString(e.sourceContext())

	if e.Hint != "" {
		fmt.Fprintf(&b, "hint: %s\n", e.Hint)
	}
	return b.String()
}

func (e *ParseError) sourceContext() string {
	if e.File == "" || e.Line < 1 {
		return ""
	}
	f, err := os.Open(e.File)
	if err != nil {
		return ""
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if e.Line > len(lines) {
		return ""
	}

	var b strings.Builder
	from := max(1, e.Line-2)
	to := min(len(lines), e.Line+2)
	for i := from; i <= to; i++ {
		marker := "  "
		if i == e.Line {
			marker = "> "
		}
		prefix := fmt.Sprintf("%s%3d | ", marker, i)
		b.WriteString(prefix + lines[i-1] + "\n")
		if i == e.Line && e.Column > 0 {
			b.WriteString(strings.Repeat(" ", len(prefix)+e.Column-1) + "^\n")
		}
	}
	return b.String()
}

// NewParseError creates a ParseError.
func NewParseError(file string, line int, message string) *ParseError {
	return &ParseError{File: file, Line: line, Message: message}
}

// WithColumn sets the column.
func (e *ParseError) WithColumn(col int) *ParseError {
	e.Column = col
	return e
}

// WithHint sets the hint.
func (e *ParseError) WithHint(hint string) *ParseError {
	e.Hint = hint
	return e
}
