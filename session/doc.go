// Package session holds the per-conversation mutable state of the agent: the
// currently identified patient and a bounded history of prior invocations
// used for log correlation. A Context lives exactly as long as one live
// conversation and is never persisted; the Manager tracks the contexts of
// concurrently active conversations.
package session
