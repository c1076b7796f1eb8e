// Package model defines the provider-agnostic model invocation contract: a
// normalized Request carrying the conversation log and tool definitions, and
// a stream of Response events that may culminate in an assistant message with
// tool calls. Concrete adapters live in sub-packages (openai, anthropic);
// MockModel supports tests and local development.
package model
