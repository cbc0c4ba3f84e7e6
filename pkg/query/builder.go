package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// condition is a WHERE fragment whose "?" markers are numbered at build time.
type condition struct {
	clause string
	args   []any
}

// SortField represents a single column in an ORDER BY clause.
// Field is the logical field name (mapped via ProjectionMap).
type SortField struct {
	Field      string
	Descending bool
}

// Builder constructs PostgreSQL SELECT statements against a ProjectionMap.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
	lock        bool
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses a comma-separated sort string such as
// "Title,-CreatedAt". A leading "-" sorts descending.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		name, desc := strings.CutPrefix(part, "-")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// ForUpdate locks the base table rows selected by Build, BuildSingle,
// and BuildSingleOrNull until the enclosing transaction ends.
func (b *Builder) ForUpdate() *Builder {
	b.lock = true
	return b
}

// OrderByFields sets the sort order, overriding default sort fields.
// Fields missing from the projection are ignored.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereEquals adds an equality condition. Nil values and nil pointers are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.projection.Column(field)+" = ?", value)
}

// WhereSearch matches search as a case-insensitive substring of any of
// fields. LIKE wildcards in search are matched literally.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + likeEscaper.Replace(*search) + "%"
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE ?"
		args[i] = pattern
	}
	return b.where("("+strings.Join(clauses, " OR ")+")", args...)
}

// Build returns a SELECT with the current conditions and ordering.
func (b *Builder) Build() (string, []any) {
	where, args := b.buildWhere()
	return b.selectFrom() + where + b.buildOrderBy() + b.buildLock(), args
}

// BuildCount returns a COUNT(*) query with the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.buildWhere()
	return "SELECT COUNT(*) FROM " + b.projection.From() + where, args
}

// BuildPage returns a SELECT for the given 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.buildWhere()
	offset := (page - 1) * pageSize
	return fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d",
		b.selectFrom(), where, b.buildOrderBy(), pageSize, offset), args
}

// BuildSingle returns a SELECT for the row whose idField equals id.
// Conditions and ordering are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return fmt.Sprintf("%s WHERE %s = $1%s",
		b.selectFrom(), b.projection.Column(idField), b.buildLock()), []any{id}
}

// BuildSingleOrNull returns a SELECT of at most one row matching the current conditions.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	where, args := b.buildWhere()
	return b.selectFrom() + where + b.buildOrderBy() + " LIMIT 1" + b.buildLock(), args
}

func (b *Builder) where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From()
}

func (b *Builder) buildOrderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if !b.projection.Has(f.Field) {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts = append(parts, b.projection.Column(f.Field)+" "+dir)
	}

	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) buildLock() string {
	if !b.lock {
		return ""
	}
	return " FOR UPDATE OF " + b.projection.Alias()
}

func (b *Builder) buildWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(" WHERE ")
	for i, cond := range b.conditions {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		next := 0
		for _, r := range cond.clause {
			if r != '?' {
				sb.WriteRune(r)
				continue
			}
			args = append(args, cond.args[next])
			next++
			sb.WriteString("$" + strconv.Itoa(len(args)))
		}
	}
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
