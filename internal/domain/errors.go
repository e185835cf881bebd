package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrContractViolation marks a classifier answer outside the sentiment vocabulary.
	ErrContractViolation = errors.New("classifier contract violation")
	// ErrNoMoreData marks a source that has no older articles to offer.
	ErrNoMoreData = errors.New("no more historical data")
)

// ValidationError reports fields that failed schema validation.
type ValidationError struct {
	Subject string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(parts, "; "))
}
