package parser

import (
	"errors"
	"fmt"
)

// Code identifies a parser failure. The set is closed so callers can
// localise and aggregate failures.
type Code string

const (
	CodeMissingType        Code = "missing_parser_type"
	CodeUnknownType        Code = "invalid_parser_type"
	CodeMissingPattern     Code = "missing_pattern"
	CodeInvalidPattern     Code = "invalid_pattern"
	CodeInvalidFlag        Code = "invalid_regex_flag"
	CodePatternNotMatched  Code = "pattern_not_matched"
	CodeGroupNotFound      Code = "group_not_found"
	CodeMultipleLines      Code = "multiple_lines_detected"
	CodeInvalidMultiLine   Code = "invalid_multi_line"
	CodeInvalidJSON        Code = "invalid_json"
	CodeJSONArrayExpected  Code = "json_array_expected"
	CodeJSONObjectExpected Code = "json_object_expected"
	CodeMissingPath        Code = "missing_json_path"
	CodeKeyNotFound        Code = "key_not_found"
	CodeListIndexInvalid   Code = "list_index_invalid"
	CodeInvalidPath        Code = "invalid_path"
	CodeNoTaggedLines      Code = "no_tagged_lines"
	CodeMissingAnyParsers  Code = "missing_any_parsers"
	CodeMissingScript      Code = "missing_script"
	CodeScriptUnavailable  Code = "script_runner_unavailable"
	CodeScriptFailed       Code = "script_failed"
	CodeUnknownReference   Code = "unknown_reference"
	CodeReferenceCycle     Code = "reference_cycle"
)

// Error is a typed parser failure.
type Error struct {
	Code   Code
	Detail string
	Err    error
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code, so errors.Is(err,
// &Error{Code: CodeKeyNotFound}) works regardless of detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the parser code from err, or "" when err is not a parser
// error.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
