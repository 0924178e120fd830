// Package repository implements the relational data access layer for the
// recipe book API.
//
// Repositories wrap a *gorm.DB and work against SQLite or PostgreSQL
// unchanged. The SurrealDB equivalents live in the surreal subpackage and
// satisfy the same service interfaces.
//
// # Repository Pattern
//
//   - Constructor function (NewXxxRepository) accepts the connection
//   - Reads return nil, nil when the record does not exist
//   - Writes spanning several rows run inside db.Transaction
//   - Driver errors are wrapped with context; unique violations surface
//     as database.ErrDuplicate
//
// # Recipe and Ingredient Storage
//
// Recipes and ingredients are linked through the ingredients_recipe join
// table. Deleting a recipe removes its links and then only those
// ingredients that no other recipe still uses.
//
//	repo := repository.NewRecipeRepository(db)
//	recipe, err := repo.GetByID(ctx, id)
//	if recipe == nil {
//	    // not found
//	}
package repository
