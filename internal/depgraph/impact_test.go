package depgraph

import (
	"reflect"
	"testing"
)

func TestAffectedTransitiveAncestors(t *testing.T) {
	g := BuildFromFacts([]Fact{
		{Node: "A", DependsOn: []string{"B"}},
		{Node: "B", DependsOn: []string{"C"}},
	})

	affected := Affected(g, []string{"C"})
	want := []string{"A", "B"}
	if !reflect.DeepEqual(affected, want) {
		t.Errorf("Affected({C}) = %v, want %v", affected, want)
	}
}

func TestAffectedExcludesChangedNodes(t *testing.T) {
	g := BuildFromFacts([]Fact{
		{Node: "A", DependsOn: []string{"B"}},
	})

	affected := Affected(g, []string{"A", "B"})
	if len(affected) != 0 {
		t.Errorf("Affected({A,B}) = %v, want empty (changed nodes excluded)", affected)
	}
}

func TestAffectedMultipleChanged(t *testing.T) {
	g := BuildFromFacts([]Fact{
		{Node: "A", DependsOn: []string{"B"}},
		{Node: "X", DependsOn: []string{"Y"}},
	})

	affected := Affected(g, []string{"B", "Y"})
	want := []string{"A", "X"}
	if !reflect.DeepEqual(affected, want) {
		t.Errorf("Affected({B,Y}) = %v, want %v", affected, want)
	}
}

func TestAffectedTerminatesOnCycle(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "B", DependencyEdge, 1.0)
	g.AddEdge("B", "A", DependencyEdge, 1.0)
	g.AddEdge("C", "A", DependencyEdge, 1.0)

	affected := Affected(g, []string{"B"})
	want := []string{"A", "C"}
	if !reflect.DeepEqual(affected, want) {
		t.Errorf("Affected({B}) = %v, want %v", affected, want)
	}
}

func TestAffectedUnknownNode(t *testing.T) {
	g := BuildFromFacts([]Fact{
		{Node: "A", DependsOn: []string{"B"}},
	})

	if affected := Affected(g, []string{"missing"}); len(affected) != 0 {
		t.Errorf("Affected on unknown node = %v, want empty", affected)
	}
}
