package ingest

// loader.go persists a validated canonical set, one table at a time in the
// registry's dependency order.
//
// For every row the loader resolves each foreign key by looking up the
// parent's natural key among rows already written in this transaction (or
// by earlier ingests), then writes the row according to the table's load
// strategy. A row that cannot be mapped aborts the whole load.

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/JonMunkholm/fundingdata/internal/schema"
	"github.com/JonMunkholm/fundingdata/internal/store"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
)

// loader holds the state of one load attempt. It is discarded when the
// attempt's transaction ends.
type loader struct {
	reg   *schema.Registry
	tx    *store.Tx
	round int

	// injected supplies values for Injected fields, by canonical column.
	injected map[string]string

	submissionID string // surrogate of the submission row written this attempt
	roundLinkID  string // surrogate of the round-link row written this attempt
	programmeID  string

	created map[string]int
	merged  map[string]int
	skipped map[string]int
}

func newLoader(reg *schema.Registry, tx *store.Tx, round int, injected map[string]string) *loader {
	return &loader{
		reg:      reg,
		tx:       tx,
		round:    round,
		injected: injected,
		created:  make(map[string]int),
		merged:   make(map[string]int),
		skipped:  make(map[string]int),
	}
}

// load writes every table of set in dependency order.
func (l *loader) load(ctx context.Context, set tabular.Set) error {
	for _, def := range l.reg.Tables() {
		t, ok := set[def.Name]
		if !ok || t.Len() == 0 {
			if def.Role == schema.RoleSubmission || def.Role == schema.RoleRoundLink || def.Role == schema.RoleProgramme {
				return &MappingError{Table: def.Name, Reason: "no rows"}
			}
			continue
		}
		if err := l.loadTable(ctx, def, t); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) loadTable(ctx context.Context, def schema.TableDefinition, t *tabular.Table) error {
	for i := range t.Rows {
		values, err := l.entity(ctx, def, t, i)
		if err != nil {
			return err
		}

		switch def.Strategy {
		case schema.PlainInsert:
			err = l.insert(ctx, def, values)
		case schema.MergeIfOlderRound:
			err = l.mergeIfOlderRound(ctx, def, t, i, values)
		case schema.InsertIfAbsentByNaturalKey:
			err = l.insertIfAbsent(ctx, def, t, i, values)
		default:
			err = errors.Errorf("table %s: unknown load strategy %d", def.Name, def.Strategy)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// entity builds the persisted column values of row i, keyed by column, with
// foreign keys resolved and the parent key injected. The surrogate id is
// left for the strategy to decide.
func (l *loader) entity(ctx context.Context, def schema.TableDefinition, t *tabular.Table, i int) (map[string]any, error) {
	values := make(map[string]any, len(def.Fields)+2)

	for _, f := range def.Fields {
		if f.Injected {
			v, err := schema.Coerce(f, l.injected[f.Name])
			if err != nil {
				return nil, &MappingError{Table: def.Name, Row: i, Column: f.Name, Reason: err.Error()}
			}
			values[f.Column()] = v
			continue
		}
		if !t.Has(f.Name) {
			return nil, &MappingError{Table: def.Name, Row: i, Column: f.Name, Reason: "column missing"}
		}

		raw := t.Value(i, f.Name)
		if fk, ok := def.ForeignKeyFor(f.Name); ok {
			id, err := l.resolve(ctx, def, fk, raw, i)
			if err != nil {
				return nil, err
			}
			values[fk.TargetColumn] = id
			continue
		}

		v, err := schema.Coerce(f, raw)
		if err != nil {
			return nil, &MappingError{Table: def.Name, Row: i, Column: f.Name, Reason: err.Error()}
		}
		values[f.Column()] = v
	}

	switch def.Parent {
	case schema.ParentSubmission:
		values[schema.ColumnSubmission] = l.submissionID
	case schema.ParentRoundLink:
		values[schema.ColumnRoundLink] = l.roundLinkID
	}
	return values, nil
}

// resolve maps a natural key to the parent's surrogate key. Blank values
// resolve to nil for nullable keys.
func (l *loader) resolve(ctx context.Context, def schema.TableDefinition, fk schema.ForeignKey, raw string, row int) (any, error) {
	parent, _ := l.reg.Table(fk.ParentTable)
	parentField, _ := parent.Field(fk.ParentColumn)

	key, err := schema.Coerce(parentField, raw)
	if err != nil {
		return nil, &MappingError{Table: def.Name, Row: row, Column: fk.Column, Reason: err.Error()}
	}
	if key == nil {
		if fk.Nullable {
			return nil, nil
		}
		return nil, &MappingError{Table: def.Name, Row: row, Column: fk.Column, Reason: "blank foreign key"}
	}

	cols := []string{parentField.Column()}
	vals := []any{key}
	if fk.Scoped {
		cols = append(cols, schema.ColumnRoundLink)
		vals = append(vals, l.roundLinkID)
	}

	id, err := l.tx.LookupID(ctx, parent.DBTable, cols, vals)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &MappingError{
			Table:  def.Name,
			Row:    row,
			Column: fk.Column,
			Reason: fmt.Sprintf("no %s row with %s %q", fk.ParentTable, fk.ParentColumn, raw),
		}
	}
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (l *loader) insert(ctx context.Context, def schema.TableDefinition, values map[string]any) error {
	id := uuid.NewString()
	values[schema.ColumnID] = id

	cols := def.PersistedColumns()
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = values[c]
	}
	if err := l.tx.Insert(ctx, def.DBTable, cols, args); err != nil {
		return err
	}
	l.created[def.Name]++

	switch def.Role {
	case schema.RoleSubmission:
		l.submissionID = id
	case schema.RoleRoundLink:
		l.roundLinkID = id
	case schema.RoleProgramme:
		l.programmeID = id
	}
	return nil
}

// naturalKey returns the persisted columns and coerced values of the
// table's natural key for row i.
func (l *loader) naturalKey(def schema.TableDefinition, t *tabular.Table, i int) ([]string, []any, error) {
	cols := make([]string, 0, len(def.NaturalKey))
	vals := make([]any, 0, len(def.NaturalKey))
	for _, name := range def.NaturalKey {
		f, _ := def.Field(name)
		v, err := schema.Coerce(f, t.Value(i, name))
		if err != nil || v == nil {
			return nil, nil, &MappingError{Table: def.Name, Row: i, Column: name, Reason: "blank or invalid natural key"}
		}
		cols = append(cols, f.Column())
		vals = append(vals, v)
	}
	return cols, vals, nil
}

// insertIfAbsent writes the row only when no row shares its natural key.
// An existing row is left untouched.
func (l *loader) insertIfAbsent(ctx context.Context, def schema.TableDefinition, t *tabular.Table, i int, values map[string]any) error {
	cols, vals, err := l.naturalKey(def, t, i)
	if err != nil {
		return err
	}
	_, err = l.tx.LookupID(ctx, def.DBTable, cols, vals)
	switch {
	case err == nil:
		l.skipped[def.Name]++
		return nil
	case errors.Is(err, store.ErrNotFound):
		return l.insert(ctx, def, values)
	default:
		return err
	}
}

// mergeIfOlderRound updates the existing row in place, keeping its
// surrogate key, unless it already appears in a round newer than the one
// being loaded. Absent rows are inserted.
func (l *loader) mergeIfOlderRound(ctx context.Context, def schema.TableDefinition, t *tabular.Table, i int, values map[string]any) error {
	cols, vals, err := l.naturalKey(def, t, i)
	if err != nil {
		return err
	}
	id, err := l.tx.LookupID(ctx, def.DBTable, cols, vals)
	if errors.Is(err, store.ErrNotFound) {
		return l.insert(ctx, def, values)
	}
	if err != nil {
		return err
	}
	if def.Role == schema.RoleProgramme {
		l.programmeID = id
	}

	latest, err := l.tx.LatestRound(ctx, id)
	if err != nil {
		return err
	}
	if latest > l.round {
		l.skipped[def.Name]++
		return nil
	}

	var setCols []string
	var args []any
	for _, c := range def.PersistedColumns() {
		if c == schema.ColumnID {
			continue
		}
		setCols = append(setCols, c)
		args = append(args, values[c])
	}
	if err := l.tx.Update(ctx, def.DBTable, id, setCols, args); err != nil {
		return err
	}
	l.merged[def.Name]++
	return nil
}
