// Package model defines domain entities and data structures for the recipe
// book API.
//
// The model package contains the struct definitions for domain objects,
// request/response types, and error definitions. Models are used across all
// layers of the application.
//
// # Domain Entities
//
//   - Recipe: a user's recipe, created empty and filled in by updates
//   - Ingredient: name, quantity and unit, shared with recipes through the
//     ingredients_recipe join table
//   - User: account with a bcrypt password hash
//   - Principal: the authenticated caller passed to every service call
//
// # Request Decoding
//
// Clients are loose about JSON types. FlexibleID accepts string or numeric
// ids, Quantity keeps the raw value for numeric validation, and NullableInt
// accepts numbers, numeric strings and blanks.
//
// # Serialization
//
// NewRecipeOverview produces the recipe_overview projection that every
// recipe endpoint returns.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go.
package model
