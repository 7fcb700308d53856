// Package validate holds the validators of each bid application step.
//
// Validators never stop at the first failing field: they return every field
// error of the step, at most one per field, in the order the fields appear on
// the page. An empty Errors means the step may be left.
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FieldError is a validation failure of a single form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the ordered list of field errors of a step
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Has reports whether there is at least one error for field
func (e Errors) Has(field string) bool {
	return e.Count(field) > 0
}

// Count returns the number of errors for field
func (e Errors) Count(field string) int {
	n := 0
	for _, fe := range e {
		if fe.Field == field {
			n++
		}
	}
	return n
}

// Message returns the first message for field, or the empty string
func (e Errors) Message(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Map indexes the messages by field, for templates
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := m[fe.Field]; !ok {
			m[fe.Field] = fe.Message
		}
	}
	return m
}

// merge appends the errors of other that are not already present
func (e Errors) merge(other Errors) Errors {
	for _, fe := range other {
		dup := false
		for _, have := range e {
			if have == fe {
				dup = true
				break
			}
		}
		if !dup {
			e = append(e, fe)
		}
	}
	return e
}

// flatten converts the map returned by ozzo into an ordered list.
// Fields are ordered as in order, unknown fields go last sorted by name.
func flatten(err error, order []string) Errors {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		// An internal error means a rule was misconfigured
		return Errors{{Field: "form", Message: fmt.Sprintf("validation failed: %v", err)}}
	}

	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}

	keys := make([]string, 0, len(verrs))
	for k, v := range verrs {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return keys[i] < keys[j]
	})

	out := make(Errors, 0, len(keys))
	for _, k := range keys {
		out = append(out, FieldError{Field: k, Message: message(verrs[k])})
	}
	return out
}

func message(err error) string {
	var ve validation.Error
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}
