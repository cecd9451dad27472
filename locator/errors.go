// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package locator

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates that locator text does not follow the locator grammar.
	ErrSyntax = errors.New("locator syntax error")

	// ErrRepeatedDimension indicates a dimension expected once was given several times.
	ErrRepeatedDimension = errors.New("dimension is repeated")

	// ErrInvalidValue indicates a dimension or single value of the wrong shape.
	ErrInvalidValue = errors.New("invalid value")
)

// SyntaxError describes where parsing of a locator failed.
type SyntaxError struct {
	Text string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("bad locator syntax: %s at position %d in %q", e.Msg, e.Pos, e.Text)
}

// Is reports ErrSyntax as the kind of every SyntaxError.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// DimensionError reports a value that cannot be read the way the consumer asked.
type DimensionError struct {
	Name  string
	Value string
	Err   error
}

func (e *DimensionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Name == "" {
		return fmt.Sprintf("single value %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("dimension %q: %v", e.Name, e.Err)
}

func (e *DimensionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func syntaxError(text string, pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Text: text, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
