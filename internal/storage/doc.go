// Package storage stores uploaded recipe images on the local filesystem.
//
// Each recipe gets its own directory, so two recipes of the same user can
// both hold an image named after that user:
//
//	uploads/
//	  0b7c.../alice.png
//	  9f21.../alice.jpg
//
// Writes go through a temporary file in the target directory followed by a
// rename, so readers never see a partially written image.
package storage
