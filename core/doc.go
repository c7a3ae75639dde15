// Package core provides the foundational domain types and execution contexts
// used by the clinic agent. It defines:
//
//   - Content parts (text, function call, function response) exchanged with
//     function-calling models
//   - The invocation Request/Result shapes crossing the transport boundary
//   - The domain error taxonomy (ErrorKind, DomainError) shared by the store,
//     the dispatcher and the call log
//   - ToolContext, the scoped execution context handed to function handlers
//
// The package intentionally keeps implementation concerns (persistence,
// dispatch, model adapters) out of scope so higher layers depend on small,
// stable contracts.
package core
