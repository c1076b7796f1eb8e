// Package core provides the foundational domain types shared by the
// assistant: conversation messages with heterogeneous content parts,
// tool call / tool result records, and the checkpointed conversation
// state driven by the engine. It defines the data model only; orchestration,
// persistence and provider adapters live in their own packages and depend
// on the small contracts exposed here.
package core
