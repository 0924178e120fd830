// Package fixtures provides test data factories for the recipe book.
//
// Create a factory over a migrated test database:
//
//	tdb := testdb.New(t)
//	f := fixtures.New(tdb.DB)
//
// Factory methods insert through the real repositories and return fully
// populated models:
//
//	alice := f.CreateUser(t)
//	draft := f.CreateRecipe(t, alice)
//	pancakes := f.CreateRecipe(t, alice,
//	    fixtures.WithName("Pancakes"),
//	    fixtures.WithIngredient("Flour", 200, "g"),
//	)
//
// Usernames are unique per call unless WithUsername is given.
package fixtures
