/*
Package ports defines the driven ports (interfaces) for the stepflow engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various detection services, object stores and result
backends.

# Key Interfaces

  - LabelDetector: Detects labels on a stored object (e.g., an image).
  - ObjectStore: Stores an object and returns its Locator.
  - ResultStore: Persists and loads terminal ExecutionResults.
  - Executor: The engine surface consumed by transport adapters (HTTP, MCP).
*/
package ports
