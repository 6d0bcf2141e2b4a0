// Package note defines the Note entity shared by every storage backend,
// the Repository contract those backends implement, and the errors they
// report.
//
// A Note is created from non-empty text, may later be enriched with a
// summary and tags through Patch, and is permanently removed by Delete.
// Absence of a note is reported as a nil *Note with a nil error, never
// as an error, at the repository boundary. Callers that need a distinct
// condition wrap absence in ErrNotFound themselves.
package note
