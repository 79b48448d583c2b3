package geocoder

import (
	"context"
	"errors"
	"fmt"
)

type chain []PlaceSearch

// Chain tries each search in order and returns the first non-empty result.
// If every search fails the errors are joined; if none fails but none finds
// anything, the result is empty with a nil error.
func Chain(searches ...PlaceSearch) PlaceSearch {
	var c chain
	for _, s := range searches {
		if s != nil {
			c = append(c, s)
		}
	}
	return c
}

func (c chain) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	var errs []error
	for _, s := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		places, err := s.Search(ctx, query, limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", searchName(s), err))
			continue
		}
		if len(places) > 0 {
			return places, nil
		}
	}
	if len(errs) == len(c) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

func searchName(s PlaceSearch) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
