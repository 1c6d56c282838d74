package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Row models map exported fields through `db` tags. A ",readonly" option
// marks columns the database fills itself; they are never inserted.
type modelPlan struct {
	columns []string
	fields  []int
}

var modelPlans sync.Map // reflect.Type -> *modelPlan

// InsertModel starts an insert of one row model. Errors in the model
// surface from ToSQL.
func InsertModel(table string, model any) *InsertBuilder {
	builder := InsertInto(table)
	value, plan, err := inspectModel(model)
	if err != nil {
		builder.err = err
		return builder
	}
	return builder.Columns(plan.columns...).Values(plan.values(value)...)
}

// InsertModels builds one multi-row insert. Every model shares T's type.
func InsertModels[T any](table string, models []T) *InsertBuilder {
	builder := InsertInto(table)
	if len(models) == 0 {
		builder.err = fmt.Errorf("no models to insert")
		return builder
	}

	for i := range models {
		value, plan, err := inspectModel(models[i])
		if err != nil {
			builder.err = fmt.Errorf("model %d: %w", i, err)
			return builder
		}
		if i == 0 {
			builder = builder.Columns(plan.columns...)
		}
		builder = builder.Values(plan.values(value)...)
	}
	return builder
}

func (p *modelPlan) values(value reflect.Value) []any {
	out := make([]any, 0, len(p.fields))
	for _, idx := range p.fields {
		out = append(out, value.Field(idx).Interface())
	}
	return out
}

func inspectModel(model any) (reflect.Value, *modelPlan, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return reflect.Value{}, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	if cached, ok := modelPlans.Load(typ); ok {
		return value, cached.(*modelPlan), nil
	}

	plan := &modelPlan{}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" || hasTagOption(opts, "readonly") {
			continue
		}
		plan.columns = append(plan.columns, name)
		plan.fields = append(plan.fields, i)
	}
	if len(plan.columns) == 0 {
		return reflect.Value{}, nil, fmt.Errorf("model %s has no db columns", typ.Name())
	}

	actual, _ := modelPlans.LoadOrStore(typ, plan)
	return value, actual.(*modelPlan), nil
}

func hasTagOption(opts, want string) bool {
	for _, opt := range strings.Split(opts, ",") {
		if strings.TrimSpace(opt) == want {
			return true
		}
	}
	return false
}
