/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing workflow definitions.

It allows developers to define workflows using a type-safe, fluent builder pattern
instead of relying on external YAML or JSON files. This is particularly useful for
unit testing and for definitions derived from configuration.

Example usage:

	package main

	import (
		"time"

		"github.com/aretw0/stepflow/pkg/dsl"
	)

	func main() {
		b := dsl.New("FoodQualityControl").Timeout(30 * time.Second)

		b.Task("Detect Object").
			Resource("detect_labels").
			Param("Bucket", "'images'").
			Param("Key", "$.Key").
			Next("Extract Name")

		b.Transform("Extract Name").
			Project("$.Labels[0].Name", "food").
			Next("Is Pizza?")

		b.Choice("Is Pizza?").
			When("$.food", "Pizza", "Quality Control Passed").
			Otherwise("Quality Control Failed")

		b.Succeed("Quality Control Passed")
		b.Fail("Quality Control Failed", "QualityControlFailed", "food is not pizza")

		// The resulting definition is validated and ready to execute.
		def, err := b.Build()
		// ... pass def to stepflow.Engine.Execute(...)
	}
*/
package dsl
