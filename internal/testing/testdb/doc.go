// Package testdb provides test database utilities for the recipe book API.
//
// # SQLite
//
// Every test gets its own migrated SQLite file under t.TempDir():
//
//	tdb := testdb.New(t) // closed via t.Cleanup
//	repo := repository.NewRecipeRepository(tdb.DB)
//
// # SurrealDB
//
// Tests against a live SurrealDB are opt-in:
//
//	TEST_SURREALDB=1 TEST_DB_HOST=localhost go test ./...
//
// Each call to NewSurreal uses a unique namespace that Close removes:
//
//	tdb := testdb.NewSurreal(t)
//	defer tdb.Close()
package testdb
