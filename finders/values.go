package finders

import (
	"strconv"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/locator"
)

// idDimension reads a dimension holding a core.ID.
func idDimension(loc *locator.Locator, name string) (core.ID, bool, error) {
	value, ok, err := loc.Dimension(name)
	if err != nil || !ok {
		return 0, ok, err
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, true, invalidValue(name, value)
	}
	return core.ID(id), true, nil
}

// singleID returns the single value of loc as an ID, if it is one.
func singleID(value string) (core.ID, bool) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return core.ID(id), true
}

func invalidValue(name, value string) error {
	return &locator.DimensionError{Name: name, Value: value, Err: locator.ErrInvalidValue}
}
