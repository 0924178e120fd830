// Package surreal implements the recipe, ingredient and user repositories
// on SurrealDB.
//
// Record IDs are passed as models.RecordID values and returned to callers
// as bare keys, so IDs look the same as with the relational repositories.
// Writes that span several records go through database.AtomicBatch.
package surreal
