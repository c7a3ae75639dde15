// Package model defines the provider-agnostic abstractions for driving the
// language model behind the receptionist agent.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize function calling representation (ToolDefinition, Request)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate scripted mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so the agent loop remains decoupled from vendor SDKs.
package model
