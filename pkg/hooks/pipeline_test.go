package hooks

import "testing"

func TestPipelineAppliesInRegistrationOrder(t *testing.T) {
	pipeline := NewPipeline[string]()
	pipeline.Register(func(s string) string { return s + "a" })
	pipeline.Register(func(s string) string { return s + "b" })
	if got := pipeline.Apply("x"); got != "xab" {
		t.Errorf("Expected xab, got %v", got)
	}
}

func TestPipelineIgnoresNil(t *testing.T) {
	pipeline := NewPipeline[int]()
	pipeline.Register(nil)
	if pipeline.Len() != 0 {
		t.Errorf("Expected nil transform to be dropped, got %d", pipeline.Len())
	}
	if got := pipeline.Apply(7); got != 7 {
		t.Errorf("Expected identity on empty pipeline, got %d", got)
	}
}
