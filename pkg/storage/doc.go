// Package storage manages the local statement archive.
//
// Statements are stored as <output>/<year>/<payDate>[-n].pdf. There is no
// index file; a statement counts as downloaded when a regular file exists
// at its path. Writes go through a temp file and a rename so an
// interrupted download never leaves a partial PDF behind.
package storage
