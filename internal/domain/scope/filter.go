package scope

import (
	"fmt"
	"strings"
)

type Resource string

const (
	ResourceAttendance Resource = "attendance"
	ResourceUserList   Resource = "user_list"
	ResourceLeave      Resource = "leave"
	ResourceTicket     Resource = "ticket"
	ResourceTimesheet  Resource = "timesheet"
)

func ParseResource(s string) (Resource, error) {
	switch r := Resource(strings.ToLower(strings.TrimSpace(s))); r {
	case ResourceAttendance, ResourceUserList, ResourceLeave, ResourceTicket, ResourceTimesheet:
		return r, nil
	}
	return "", ErrUnknownResource
}

// Field names the owner or assignee attribute a clause restricts.
type Field string

const (
	FieldUser       Field = "user"
	FieldEmployee   Field = "employee"
	FieldCreatedBy  Field = "created_by"
	FieldAssignedTo Field = "assigned_to"
)

// Clause matches records whose Field is one of IDs.
type Clause struct {
	Field Field    `json:"field"`
	IDs   []string `json:"ids"`
}

// Filter is a declarative visibility predicate: either unrestricted, or the
// OR of its clauses. A restricted filter with no usable clause matches nothing.
type Filter struct {
	Unrestricted bool     `json:"unrestricted"`
	AnyOf        []Clause `json:"any_of,omitempty"`
}

func All() Filter {
	return Filter{Unrestricted: true}
}

func None() Filter {
	return Filter{}
}

// In builds a single-clause filter. Empty ids are dropped.
func In(field Field, ids ...string) Filter {
	return Filter{}.Or(field, ids...)
}

// Or returns f with an extra clause appended.
func (f Filter) Or(field Field, ids ...string) Filter {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return f
	}
	clauses := append(append([]Clause(nil), f.AnyOf...), Clause{Field: field, IDs: kept})
	return Filter{Unrestricted: f.Unrestricted, AnyOf: clauses}
}

// DeniesAll reports whether the filter can never match.
func (f Filter) DeniesAll() bool {
	return !f.Unrestricted && len(f.AnyOf) == 0
}

// Allows evaluates the filter against one record's field values.
func (f Filter) Allows(values map[Field]string) bool {
	if f.Unrestricted {
		return true
	}
	for _, c := range f.AnyOf {
		v, ok := values[c.Field]
		if !ok || v == "" {
			continue
		}
		for _, id := range c.IDs {
			if id == v {
				return true
			}
		}
	}
	return false
}

// SQL renders the filter as a WHERE fragment. columns maps each field to its
// column; placeholders start at $firstArg.
func (f Filter) SQL(columns map[Field]string, firstArg int) (string, []any, error) {
	if f.Unrestricted {
		return "TRUE", nil, nil
	}
	if f.DeniesAll() {
		return "FALSE", nil, nil
	}

	parts := make([]string, 0, len(f.AnyOf))
	args := make([]any, 0, len(f.AnyOf))
	for _, c := range f.AnyOf {
		col, ok := columns[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("scope field %q has no column mapping", c.Field)
		}
		parts = append(parts, fmt.Sprintf("%s = ANY($%d::uuid[])", col, firstArg+len(args)))
		args = append(args, c.IDs)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args, nil
}
