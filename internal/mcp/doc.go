// Package mcp exposes the note operations as Model Context Protocol tools.
//
// The server is built on github.com/modelcontextprotocol/go-sdk/mcp and
// calls the service registry directly. It can run over stdio or be mounted
// as a streamable HTTP handler next to the REST API.
package mcp
