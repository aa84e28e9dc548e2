/*
Package stepflow is a small deterministic workflow engine for short
orchestration runs: call an external capability, project a field out of its
result, branch on it, and end in a succeeded or failed terminal state, all
under a wall-clock deadline.

A workflow is a Definition: an immutable graph of task, transform, choice and
terminal states that may be shared by any number of concurrent executions.
Each execution owns its working Context and always ends in an
ExecutionResult. Failures never escape as errors; they are reported through
the result's Status (Succeeded, Failed, TimedOut or Errored) and StepError.

# Usage

The reference workflow checks that an uploaded photo shows a pizza:

	eng := stepflow.New(
		stepflow.WithDetector(detector), // any ports.LabelDetector
	)

	cfg := stepflow.DefaultQualityControlConfig()
	def, err := stepflow.QualityControl(cfg)
	if err != nil {
		log.Fatal(err)
	}

	result := eng.Execute(ctx, def, cfg.Input(), 0)
	fmt.Println(result.Status, result.Context["food"])

Custom workflows are built with the fluent builder in pkg/dsl or loaded from
YAML/JSON documents, and custom task resources are registered with
WithCapability.

# Architecture

  - pkg/domain: definitions, contexts, results and error kinds.
  - pkg/ports: interfaces for label detection, object storage and result persistence.
  - pkg/adapters: in-memory, Redis, Azure Blob, process, HTTP and MCP adapters.
  - internal/runtime: the interpreter, path projection, routing and validation.
*/
package stepflow
