package schema

import (
	"fmt"
	"sync"

	"github.com/go-faster/errors"
)

var (
	registered   []TableDefinition
	registeredMu sync.RWMutex

	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Register adds a table definition to the package registry.
// Panics if a table with the same name is already registered.
func Register(def TableDefinition) {
	registeredMu.Lock()
	defer registeredMu.Unlock()

	for _, existing := range registered {
		if existing.Name == def.Name {
			panic(fmt.Sprintf("table already registered: %s", def.Name))
		}
	}
	registered = append(registered, def)
}

// Registered returns the registered definitions in registration order.
func Registered() []TableDefinition {
	registeredMu.RLock()
	defer registeredMu.RUnlock()

	out := make([]TableDefinition, len(registered))
	copy(out, registered)
	return out
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registeredMu.Lock()
	defer registeredMu.Unlock()
	registered = nil
}

// Default compiles the registered definitions once and returns the result.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Compile(Registered())
	})
	return defaultReg, defaultErr
}

// Registry is a compiled, immutable set of table definitions in dependency order.
type Registry struct {
	order  []TableDefinition
	byName map[string]int

	submission string
	roundLink  string
	programme  string
}

// Compile checks the definitions for internal consistency and orders them so
// that every table comes after the tables it references.
func Compile(defs []TableDefinition) (*Registry, error) {
	byName := make(map[string]TableDefinition, len(defs))
	roles := make(map[TableRole]string)

	for _, d := range defs {
		if d.Name == "" || d.DBTable == "" {
			return nil, errors.Errorf("table %q: name and database table are required", d.Name)
		}
		if _, dup := byName[d.Name]; dup {
			return nil, errors.Errorf("table %q: declared twice", d.Name)
		}
		byName[d.Name] = d

		switch d.Role {
		case RoleSubmission, RoleRoundLink, RoleProgramme:
			if prev, ok := roles[d.Role]; ok {
				return nil, errors.Errorf("tables %q and %q: both declare the same role", prev, d.Name)
			}
			roles[d.Role] = d.Name
		}
	}

	for _, role := range []TableRole{RoleSubmission, RoleRoundLink, RoleProgramme} {
		if _, ok := roles[role]; !ok {
			return nil, errors.Errorf("no table declares role %d", role)
		}
	}

	for _, d := range defs {
		if err := checkDefinition(d, byName); err != nil {
			return nil, err
		}
	}

	order, err := dependencyOrder(defs, roles)
	if err != nil {
		return nil, err
	}

	reg := &Registry{
		order:      order,
		byName:     make(map[string]int, len(order)),
		submission: roles[RoleSubmission],
		roundLink:  roles[RoleRoundLink],
		programme:  roles[RoleProgramme],
	}
	for i, d := range order {
		reg.byName[d.Name] = i
	}
	return reg, nil
}

func checkDefinition(d TableDefinition, byName map[string]TableDefinition) error {
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if seen[f.Name] {
			return errors.Errorf("table %q: column %q declared twice", d.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Type == FieldEnum && len(f.EnumValues) == 0 {
			return errors.Errorf("table %q: enum column %q has no values", d.Name, f.Name)
		}
	}

	for _, key := range d.Unique {
		for _, c := range key {
			if !seen[c] {
				return errors.Errorf("table %q: unique column %q is not declared", d.Name, c)
			}
		}
	}
	for _, c := range d.NaturalKey {
		if !seen[c] {
			return errors.Errorf("table %q: natural key column %q is not declared", d.Name, c)
		}
	}
	if d.Strategy == MergeIfOlderRound && d.Role != RoleProgramme {
		return errors.Errorf("table %q: strategy %s is only supported for the programme table", d.Name, d.Strategy)
	}
	if d.Strategy != PlainInsert && len(d.NaturalKey) == 0 {
		return errors.Errorf("table %q: strategy %s requires a natural key", d.Name, d.Strategy)
	}
	for _, r := range d.DateRanges {
		if !seen[r.Start] || !seen[r.End] {
			return errors.Errorf("table %q: date range %s..%s is not declared", d.Name, r.Start, r.End)
		}
	}

	for _, fk := range d.ForeignKeys {
		if !seen[fk.Column] {
			return errors.Errorf("table %q: foreign key column %q is not declared", d.Name, fk.Column)
		}
		parent, ok := byName[fk.ParentTable]
		if !ok {
			return errors.Errorf("table %q: foreign key %q references unknown table %q", d.Name, fk.Column, fk.ParentTable)
		}
		if _, ok := parent.Field(fk.ParentColumn); !ok {
			return errors.Errorf("table %q: foreign key %q references unknown column %s.%s",
				d.Name, fk.Column, fk.ParentTable, fk.ParentColumn)
		}
		if fk.TargetColumn == "" {
			return errors.Errorf("table %q: foreign key %q has no target column", d.Name, fk.Column)
		}
		if fk.Scoped && parent.Parent != ParentRoundLink {
			return errors.Errorf("table %q: scoped foreign key %q needs a round-link scoped parent", d.Name, fk.Column)
		}
	}
	return nil
}

// Tables returns every definition in dependency order.
func (r *Registry) Tables() []TableDefinition {
	out := make([]TableDefinition, len(r.order))
	copy(out, r.order)
	return out
}

// Table returns the definition for a canonical table name.
func (r *Registry) Table(name string) (TableDefinition, bool) {
	i, ok := r.byName[name]
	if !ok {
		return TableDefinition{}, false
	}
	return r.order[i], true
}

// Columns returns the canonical columns of a table, or nil if unknown.
func (r *Registry) Columns(name string) []string {
	d, ok := r.Table(name)
	if !ok {
		return nil
	}
	return d.Columns()
}

// Submission returns the submission table definition.
func (r *Registry) Submission() TableDefinition {
	d, _ := r.Table(r.submission)
	return d
}

// RoundLink returns the round-link table definition.
func (r *Registry) RoundLink() TableDefinition {
	d, _ := r.Table(r.roundLink)
	return d
}

// Programme returns the programme table definition.
func (r *Registry) Programme() TableDefinition {
	d, _ := r.Table(r.programme)
	return d
}

// Len returns the number of tables.
func (r *Registry) Len() int {
	return len(r.order)
}
