// Package enrich derives a short summary and keyword tags from note text.
//
// A Service holds a fixed-priority list of providers:
//
//	Local, Ollama, Groq, OpenAI, Hugging Face, Rule-based
//
// Each provider exposes Available, a cheap local check of its prerequisites
// (credential, endpoint, runtime flag) that never performs network I/O.
// The Service selects one provider per call, honouring an optional
// preference, and invokes it. On any failure it calls the rule-based
// provider exactly once. Only when that also fails does Enrich return
// ErrExhaustedFallback, which for non-empty text does not happen.
//
// Remote providers receive text with secrets scrubbed. Model output is
// parsed as JSON after stripping Markdown fences; when that fails each
// provider applies its own repair heuristic before giving up.
package enrich
