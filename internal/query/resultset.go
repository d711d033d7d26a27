package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ResultSet is the outcome of running one generated statement. A failed
// execution is never reported as an empty success: Failed is set and Rows is
// nil. A successful execution always has a non-nil Rows slice.
type ResultSet struct {
	Rows   []Row
	Failed bool
	Err    error
}

func Failure(err error) ResultSet {
	return ResultSet{Failed: true, Err: err}
}

func FromResult(result Result) ResultSet {
	rows := make([]Row, 0, len(result.Rows))
	for _, values := range result.Rows {
		rows = append(rows, NewRow(result.Columns, values))
	}
	return ResultSet{Rows: rows}
}

func (rs ResultSet) Empty() bool {
	return !rs.Failed && len(rs.Rows) == 0
}

// Render returns the textual form of the rows embedded in answer prompts: a
// JSON array of objects in column order.
func (rs ResultSet) Render() string {
	if rs.Failed {
		return "null"
	}
	if len(rs.Rows) == 0 {
		return "[]"
	}
	body, err := json.Marshal(rs.Rows)
	if err != nil {
		return fmt.Sprintf("%v", rs.Rows)
	}
	return string(body)
}

// Execute runs sqlText on engine and folds any error into a failed ResultSet.
func Execute(ctx context.Context, engine Engine, sqlText string) ResultSet {
	if engine == nil {
		return Failure(fmt.Errorf("query engine is required"))
	}
	if strings.TrimSpace(sqlText) == "" {
		return Failure(ErrSQLRequired)
	}
	result, err := engine.Execute(ctx, Request{SQL: sqlText})
	if err != nil {
		return Failure(err)
	}
	return FromResult(result)
}
