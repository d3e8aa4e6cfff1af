package database

import (
	"fmt"
	"strconv"

	"github.com/araddon/dateparse"
	"github.com/asdine/storm/v3/q"
	"github.com/pkg/errors"
	"github.com/xwb1989/sqlparser"
)

// A SelectQuery is a SELECT statement translated to Storm query primitives.
// It is used by the vaultnode console command to inspect a node database.
type SelectQuery struct {
	Tablename string
	Count     bool
	Matcher   q.Matcher
	Skip      int
	Limit     int
	OrderBy   []string
	Reversed  bool
}

// ParseSelect translates the given SELECT statement into a SelectQuery.
func ParseSelect(sql string) (*SelectQuery, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse SQL")
	}

	s, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, errors.New("not a select statement")
	}

	var sq SelectQuery

	for _, se := range s.SelectExprs {
		expr, ok := se.(*sqlparser.AliasedExpr)
		if !ok {
			continue // SELECT *
		}
		if fn, ok := expr.Expr.(*sqlparser.FuncExpr); ok {
			sq.Count = fn.Name.String() == "count"
		}
	}

	if len(s.From) != 1 {
		return nil, errors.New("expected a single table")
	}
	table, ok := s.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return nil, errors.Errorf("unsupported from expression: %#v", s.From[0])
	}
	sq.Tablename = sqlparser.GetTableName(table.Expr).String()

	sq.Matcher = q.And()
	if s.Where != nil {
		sq.Matcher, err = parseWhere(s.Where.Expr)
		if err != nil {
			return nil, err
		}
	}

	if s.Limit != nil {
		if s.Limit.Offset != nil {
			sq.Skip = atoi(s.Limit.Offset)
		}
		sq.Limit = atoi(s.Limit.Rowcount)
	}

	for _, ob := range s.OrderBy {
		if ob.Direction == "desc" {
			sq.Reversed = true // Storm applies one direction to all fields
		}
		col, ok := ob.Expr.(*sqlparser.ColName)
		if !ok {
			return nil, errors.Errorf("unsupported order by expression: %#v", ob.Expr)
		}
		sq.OrderBy = append(sq.OrderBy, col.Name.String())
	}

	return &sq, nil
}

func parseWhere(expr sqlparser.Expr) (q.Matcher, error) {
	switch v := expr.(type) {
	case *sqlparser.ComparisonExpr:
		return parseComparison(v)
	case *sqlparser.AndExpr:
		left, err := parseWhere(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := parseWhere(v.Right)
		if err != nil {
			return nil, err
		}
		return q.And(left, right), nil
	case *sqlparser.OrExpr:
		left, err := parseWhere(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := parseWhere(v.Right)
		if err != nil {
			return nil, err
		}
		return q.Or(left, right), nil
	default:
		return nil, errors.Errorf("unsupported where expression: %#v", v)
	}
}

func parseComparison(expr *sqlparser.ComparisonExpr) (q.Matcher, error) {
	col, ok := expr.Left.(*sqlparser.ColName)
	if !ok {
		return nil, errors.Errorf("unsupported comparison left-hand side: %#v", expr.Left)
	}
	field := col.Name.String()

	var value any
	switch sqlvalue := expr.Right.(type) {
	case sqlparser.BoolVal:
		value = bool(sqlvalue)
	case sqlparser.ValTuple:
		var tuple []any
		for _, item := range sqlvalue {
			v, ok := item.(*sqlparser.SQLVal)
			if !ok {
				return nil, errors.Errorf("unsupported tuple value: %#v", item)
			}
			tuple = append(tuple, parseValue(v))
		}
		value = tuple
	case *sqlparser.SQLVal:
		value = parseValue(sqlvalue)
	default:
		return nil, errors.Errorf("unsupported value: %#v", sqlvalue)
	}

	switch expr.Operator {
	case "=":
		return q.Eq(field, value), nil
	case "!=":
		return q.Not(q.Eq(field, value)), nil
	case ">":
		return q.Gt(field, value), nil
	case ">=":
		return q.Gte(field, value), nil
	case "<":
		return q.Lt(field, value), nil
	case "<=":
		return q.Lte(field, value), nil
	case "in":
		return q.In(field, value), nil
	case "like":
		return q.Re(field, fmt.Sprintf("%v", value)), nil
	default:
		return nil, errors.Errorf("unsupported operator: %s", expr.Operator)
	}
}

func parseValue(v *sqlparser.SQLVal) (value any) {
	switch v.Type {
	case sqlparser.StrVal:
		value = string(v.Val)

		// Timestamps are commonly compared in where clauses.
		if t, err := dateparse.ParseAny(string(v.Val)); err == nil {
			value = t.UTC()
		}
	case sqlparser.IntVal:
		value, _ = strconv.Atoi(string(v.Val))
	case sqlparser.FloatVal:
		value, _ = strconv.ParseFloat(string(v.Val), 64)
	case sqlparser.BitVal:
		value = v.Val[0] == 1
	}

	return value
}

func atoi(expr sqlparser.Expr) int {
	v, ok := expr.(*sqlparser.SQLVal)
	if !ok || v.Type != sqlparser.IntVal {
		return 0
	}
	n, _ := strconv.Atoi(string(v.Val))
	return n
}
