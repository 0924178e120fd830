package database

// Atomic batches for SurrealDB.
//
// Queries accumulate in memory and run together inside
// BEGIN TRANSACTION / COMMIT TRANSACTION when executed:
//
//	batch := NewAtomicBatch()
//	batch.Add("DELETE ingredients_recipe WHERE out = $id", vars)
//	batch.Add("DELETE $id", vars)
//	batch.Execute(ctx, db) // all or nothing
//
// There is no isolation between Add() calls. Variables from each statement
// are namespaced ($id -> $v1_id) so statements can reuse names freely.

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// TxBuilder builds atomic transaction queries with automatic variable namespacing.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter int
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		statements: make([]string, 0),
		vars:       make(map[string]interface{}),
	}
}

// Add appends a statement, renaming each of its variables to a unique name.
// It returns the mapping from original to namespaced names.
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) map[string]string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	varMapping := make(map[string]string, len(names))
	for _, name := range names {
		tb.varCounter++
		newName := fmt.Sprintf("v%d_%s", tb.varCounter, name)
		varMapping[name] = newName
		tb.vars[newName] = vars[name]
	}

	tb.statements = append(tb.statements, renameVars(query, varMapping))
	return varMapping
}

var varPattern = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`)

// renameVars replaces whole variable references only, so $id never
// rewrites part of $idx.
func renameVars(query string, mapping map[string]string) string {
	return varPattern.ReplaceAllStringFunc(query, func(ref string) string {
		if newName, ok := mapping[ref[1:]]; ok {
			return "$" + newName
		}
		return ref
	})
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// AtomicBatch provides a simpler API for batch operations that should be atomic
type AtomicBatch struct {
	queries []batchQuery
}

type batchQuery struct {
	query string
	vars  map[string]interface{}
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{
		queries: make([]batchQuery, 0),
	}
}

// Add adds a query to the batch
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.queries = append(ab.queries, batchQuery{query: query, vars: vars})
	return ab
}

// Build returns the transaction text and variables without running it
func (ab *AtomicBatch) Build() (string, map[string]interface{}) {
	tb := NewTxBuilder()
	for _, q := range ab.queries {
		tb.Add(q.query, q.vars)
	}
	return tb.Build()
}

// Execute runs all queries as a single transaction
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	_, err := ab.Query(ctx, db)
	return err
}

// Query runs the batch like Execute and returns one result per statement,
// in the order they were added. Read them with Rows.
func (ab *AtomicBatch) Query(ctx context.Context, db Database) ([]interface{}, error) {
	if len(ab.queries) == 0 {
		return nil, nil
	}

	query, vars := ab.Build()
	results, err := db.Query(ctx, query, vars)
	if err != nil {
		return nil, Classify(err)
	}
	return results, nil
}

// Len returns the number of queries in the batch
func (ab *AtomicBatch) Len() int {
	return len(ab.queries)
}
