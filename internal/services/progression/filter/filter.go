// Package filter provides AIP-160 filter expression parsing and SQL
// translation for mission and ledger listings.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
)

// ErrInvalidFilter indicates a filter expression that does not parse or
// references an unsupported construct.
var ErrInvalidFilter = apperrors.New(apperrors.CodeInvalidArgument, "invalid filter")

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "status = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// Empty reports whether the condition filters nothing.
func (c SQLCondition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

// schema binds filterable identifiers to their type and column.
type schema struct {
	fields  []field
	columns map[string]string
}

type field struct {
	name   string
	kind   *expr.Type
	column string
}

func newSchema(fields ...field) schema {
	columns := make(map[string]string, len(fields))
	for _, f := range fields {
		columns[f.name] = f.column
	}
	return schema{fields: fields, columns: columns}
}

func (s schema) declarations() (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for _, f := range s.fields {
		opts = append(opts, filtering.DeclareIdent(f.name, f.kind))
	}
	return filtering.NewDeclarations(opts...)
}

var missionSchema = newSchema(
	field{name: "status", kind: filtering.TypeString, column: "status"},
	field{name: "difficulty", kind: filtering.TypeString, column: "difficulty"},
	field{name: "reward_currency", kind: filtering.TypeString, column: "reward_currency"},
	field{name: "reward_amount", kind: filtering.TypeInt, column: "reward_amount"},
	field{name: "story_id", kind: filtering.TypeString, column: "story_id"},
	field{name: "giver_id", kind: filtering.TypeString, column: "giver_character_id"},
	field{name: "target_id", kind: filtering.TypeString, column: "target_character_id"},
	field{name: "created_at", kind: filtering.TypeTimestamp, column: "created_at"},
)

var ledgerSchema = newSchema(
	field{name: "type", kind: filtering.TypeString, column: "entry_type"},
	field{name: "from_currency", kind: filtering.TypeString, column: "from_currency"},
	field{name: "to_currency", kind: filtering.TypeString, column: "to_currency"},
	field{name: "amount", kind: filtering.TypeInt, column: "amount"},
	field{name: "story_id", kind: filtering.TypeString, column: "story_id"},
	field{name: "story_node_id", kind: filtering.TypeString, column: "story_node_id"},
	field{name: "at", kind: filtering.TypeTimestamp, column: "created_at"},
)

// ParseMissionFilter parses a mission filter such as
// `status = "active" AND difficulty != "easy"`.
// Returns an empty condition for an empty filter string.
func ParseMissionFilter(filterStr string) (SQLCondition, error) {
	return parse(missionSchema, filterStr)
}

// ParseLedgerFilter parses a ledger filter such as
// `type = "mission_reward" AND at >= timestamp("2026-01-01T00:00:00Z")`.
// Returns an empty condition for an empty filter string.
func ParseLedgerFilter(filterStr string) (SQLCondition, error) {
	return parse(ledgerSchema, filterStr)
}

func parse(s schema, filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := s.declarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, invalid(filterStr, err)
	}

	cond, err := translator{columns: s.columns}.expr(filter.CheckedExpr.GetExpr())
	if err != nil {
		return SQLCondition{}, invalid(filterStr, err)
	}
	return cond, nil
}

func invalid(filterStr string, cause error) error {
	wrapped := apperrors.Detail(ErrInvalidFilter, map[string]string{"filter": filterStr})
	wrapped.Cause = cause
	return wrapped
}

type translator struct {
	columns map[string]string
}

// expr translates a checked expression to a SQL condition.
func (t translator) expr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return t.call(kind.CallExpr)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func (t translator) call(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case "_&&_", "AND":
		return t.join(call.Args, "AND")
	case "_||_", "OR":
		return t.join(call.Args, "OR")
	case "NOT", "_!_":
		return t.not(call.Args)
	case "_==_", "=":
		return t.comparison(call.Args, "=")
	case "_!=_", "!=":
		return t.comparison(call.Args, "!=")
	case "_<_", "<":
		return t.comparison(call.Args, "<")
	case "_<=_", "<=":
		return t.comparison(call.Args, "<=")
	case "_>_", ">":
		return t.comparison(call.Args, ">")
	case "_>=_", ">=":
		return t.comparison(call.Args, ">=")
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func (t translator) join(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}

	left, err := t.expr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}

	right, err := t.expr(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func (t translator) not(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 1 {
		return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
	}
	inner, err := t.expr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("(NOT %s)", inner.Clause),
		Params: inner.Params,
	}, nil
}

func (t translator) comparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := fieldName(args[0])
	if err != nil {
		return SQLCondition{}, err
	}

	column, ok := t.columns[field]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", field)
	}

	value, err := constValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func fieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func constValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return constant(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		// timestamp("...") compares against millisecond columns.
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return timestampMillis(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func constant(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func timestampMillis(e *expr.Expr) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("nil timestamp argument")
	}

	kind, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	strVal, ok := kind.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	ts, err := time.Parse(time.RFC3339Nano, strVal.StringValue)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", strVal.StringValue)
	}
	return ts.UTC().UnixMilli(), nil
}
