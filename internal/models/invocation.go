// internal/models/invocation.go
package models

import "encoding/json"

// ScriptInvocation is one finished execution of an allow-listed program.
// It is owned by the request that started it and immutable once the
// process has terminated.
type ScriptInvocation struct {
	ID       string   `json:"id"`
	Script   string   `json:"script"`
	Args     []string `json:"args"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	ExitCode int      `json:"exitCode"`
	TimedOut bool     `json:"timedOut"`
}

// ExtractedPayload is a JSON value located inside an invocation's stdout.
// Absence is a reportable condition of its own, not a process failure.
type ExtractedPayload struct {
	Raw json.RawMessage `json:"raw"`
}
