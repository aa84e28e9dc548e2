/*
Package domain contains the core domain models of the stepflow engine.

It defines the workflow graph (Definition and its State variants), the working
data threaded through a run (Context), and the terminal outcome of a run
(ExecutionResult). This package is kept pure and free of I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Definition: an immutable arena of States addressed by ID, with a single start state.
  - State: a tagged variant (task, transform, choice, terminal).
  - Context: mutable working data owned by exactly one execution.
  - ExecutionResult: the terminal status plus the final Context snapshot.
  - StepError: a failure classified by ErrorKind.
*/
package domain
