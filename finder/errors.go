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


package finder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/quarry/locator"
)

var (
	// ErrBadRequest indicates a well-formed locator the finder cannot serve,
	// such as invalid paging values or an unsupported combination.
	ErrBadRequest = errors.New("bad locator")

	// ErrNotFound is returned when a single-item lookup matches nothing.
	ErrNotFound = errors.New("nothing is found")

	// ErrHelpRequested is returned for "$help" locators. The LocatorError
	// carries the supported dimensions.
	ErrHelpRequested = errors.New("locator help requested")

	// ErrSourceRequired is returned when a finder is created without a source.
	ErrSourceRequired = errors.New("finder source required")

	// ErrDuplicateCheckerType is returned when a duplicate checker option does
	// not match the finder's item type.
	ErrDuplicateCheckerType = errors.New("duplicate checker has wrong item type")
)

// LocatorError is returned by every lookup failure. It names the finder and
// the locator text, and wraps the cause: locator.ErrSyntax, ErrBadRequest,
// ErrNotFound, ErrHelpRequested or a storage error.
type LocatorError struct {
	Finder     string
	Locator    string
	Dimensions []Dimension
	Err        error
}

func (e *LocatorError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: locator %q: %v", e.Finder, e.Locator, e.Err)
	if len(e.Dimensions) > 0 && (errors.Is(e.Err, ErrBadRequest) || errors.Is(e.Err, locator.ErrSyntax)) {
		names := make([]string, len(e.Dimensions))
		for i, d := range e.Dimensions {
			names[i] = d.Name
		}
		msg += "; supported dimensions: " + strings.Join(names, ", ")
	}
	return msg
}

func (e *LocatorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Help renders the supported dimensions, one per line.
func (e *LocatorError) Help() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Supported locator dimensions for %s:\n", e.Finder)
	for _, d := range e.Dimensions {
		if d.Description == "" {
			fmt.Fprintf(&b, "  %s\n", d.Name)
			continue
		}
		fmt.Fprintf(&b, "  %s - %s\n", d.Name, d.Description)
	}
	return b.String()
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// dimensionsError reports unknown or unconsumed dimensions. It is a syntax
// error from the caller's point of view.
func dimensionsError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", locator.ErrSyntax, fmt.Sprintf(format, args...))
}
