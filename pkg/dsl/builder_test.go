package dsl

import (
	"errors"
	"testing"

	"github.com/aretw0/stepflow/pkg/domain"
)

func TestBuilder_QualityControlFlow(t *testing.T) {
	// 1. Build the definition using DSL
	b := New("FoodQualityControl")

	b.Task("detect").
		Resource("detect_labels").
		Param("Bucket", "'images'").
		Param("Key", "$.Key").
		Next("extract")

	b.Transform("extract").
		Project("$.Labels[0].Name", "food").
		Next("is_pizza")

	b.Choice("is_pizza").
		When("$.food", "Pizza", "passed").
		Otherwise("failed")

	b.Succeed("passed")
	b.Fail("failed", "QualityControlFailed", "not a pizza")

	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 2. Verify structure
	if def.StartAt != "detect" {
		t.Errorf("Expected start 'detect', got '%s'", def.StartAt)
	}
	if len(def.States) != 5 {
		t.Fatalf("Expected 5 states, got %d", len(def.States))
	}

	detect := def.States["detect"]
	if detect.Type != domain.StateTask || detect.Resource != "detect_labels" {
		t.Errorf("Unexpected task state: %+v", detect)
	}
	if detect.Parameters["Bucket"] != "'images'" {
		t.Errorf("Expected literal bucket parameter, got %q", detect.Parameters["Bucket"])
	}

	choice := def.States["is_pizza"]
	if len(choice.Rules) != 1 || choice.Rules[0].Next != "passed" {
		t.Errorf("Unexpected choice rules: %+v", choice.Rules)
	}
	if choice.Default != "failed" {
		t.Errorf("Expected default 'failed', got '%s'", choice.Default)
	}

	failed := def.States["failed"]
	if failed.Outcome != domain.OutcomeFailed || failed.Error != "QualityControlFailed" {
		t.Errorf("Unexpected fail state: %+v", failed)
	}
}

func TestBuilder_ExplicitStart(t *testing.T) {
	b := New("explicit").StartAt("begin")
	b.Succeed("done")
	b.Transform("begin").Project("$.a", "b").Next("done")

	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if def.StartAt != "begin" {
		t.Errorf("Expected start 'begin', got '%s'", def.StartAt)
	}
}

func TestBuilder_RejectsInvalidGraph(t *testing.T) {
	b := New("broken")
	b.Choice("choose").When("$.x", "y", "missing")

	_, err := b.Build()
	if err == nil {
		t.Fatal("Expected Build() to fail for dangling successor and missing default")
	}
	if !errors.Is(err, domain.ErrInvalidDefinition) {
		t.Errorf("Expected ErrInvalidDefinition, got %v", err)
	}
}

func TestBuilder_BuildIsolatesStates(t *testing.T) {
	b := New("isolation")
	task := b.Task("t").Resource("r").Param("k", "'v'").Next("end")
	b.Succeed("end")

	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	task.Param("k", "'changed'")
	if def.States["t"].Parameters["k"] != "'v'" {
		t.Errorf("Built definition must not observe later builder changes")
	}
}

func TestBuilder_BuildIsolatesInputSchema(t *testing.T) {
	b := New("isolation").Input("Key", "string")
	b.Succeed("end")

	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	b.Input("Extra", "string")
	if _, ok := def.InputSchema["Extra"]; ok {
		t.Errorf("Built input schema must not observe later builder changes, got %v", def.InputSchema)
	}
	if def.InputSchema["Key"] != "string" {
		t.Errorf("InputSchema[Key] = %q, want string", def.InputSchema["Key"])
	}
}
