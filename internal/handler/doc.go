// Package handler provides the HTTP surface of the recipe book.
//
// Handlers decode the request, call one service method with the caller's
// model.Principal and write the result as JSON. Service errors go through
// MapServiceError and come back as RFC 9457 Problem Details.
//
// NewRouter wires every route onto a net/http ServeMux using method and
// path patterns:
//
//	router := handler.NewRouter(handler.RouterConfig{
//	    Recipes: recipeHandler,
//	    Auth:    authHandler,
//	    Tokens:  jwtService,
//	})
//
// Update bodies are decoded leniently so clients can post back a full
// recipe_overview projection; auth bodies reject unknown fields.
package handler
