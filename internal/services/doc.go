// Package services provides the service registry shared by the HTTP and
// MCP front ends.
//
// The registry is built once at startup around the selected storage
// backend and the enrichment service. Besides accessors it implements the
// two flows both front ends need: enriching a stored note and listing the
// most recent notes.
package services
