// Package core provides the foundational domain types, interfaces and execution
// contexts shared by every grocerymesh package. It defines:
//
//   - Catalog items, recipes, cart lines, orders and the order index
//   - The error taxonomy surfaced to the dialogue layer (Error / Kind)
//   - BlobStore, the durable key/value contract implemented under store/
//   - Content / Part values exchanged with language models
//   - ToolContext, the scoped surface handed to tool implementations
//
// The package holds no behavior beyond small helpers so that catalog, cart,
// order and tracking packages can depend on it without cycles.
package core
