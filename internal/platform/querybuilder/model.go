package querybuilder

import (
	"reflect"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// InsertModel builds an INSERT from the exported `db`-tagged fields of model.
// Columns listed in omit are skipped, which lets serial keys fall back to their defaults.
func InsertModel(table string, model any, suffix string, omit ...string) (string, []any, error) {
	cols, vals, err := ModelColumns(model, omit...)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

func ModelColumns(model any, omit ...string) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, errors.New("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, errors.Newf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" || slices.Contains(omit, col) {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, errors.New("model has no db columns")
	}
	return cols, vals, nil
}
