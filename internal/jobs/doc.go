// Package jobs implements background work for the recipe book API.
//
// Jobs run independently of HTTP request handling and are started by the
// serve command alongside the HTTP server.
//
// # Draft Pruner
//
// Creating a recipe stores an empty draft straight away. Drafts that are
// never named are removed on a cron schedule:
//
//	pruner := jobs.NewDraftPruner(jobs.DraftPrunerConfig{
//	    Recipes:  recipeService,
//	    Schedule: "0 * * * *", // hourly
//	    MaxAge:   24 * time.Hour,
//	    Metrics:  collector,
//	    Logger:   logger,
//	})
//	if err := pruner.Start(ctx); err != nil { ... }
//	defer pruner.Stop()
//
// An empty schedule disables the job.
//
// # Error Handling
//
// Jobs log errors but don't crash the application. A failed run is
// retried at the next scheduled tick.
package jobs
