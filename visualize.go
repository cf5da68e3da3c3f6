package statemachinex

import (
	"bytes"
	"fmt"
)

// ExportDOT renders the machine's state tree as Graphviz DOT source.
// Compound states become clusters, final states get double borders, the
// current state is highlighted, and statically-targeted transitions become
// labelled edges. Conditional transitions have no static target and are
// omitted.
func ExportDOT(m *Machine) string {
	var buf bytes.Buffer
	buf.WriteString("digraph StateMachine {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, fontsize=10, style=rounded];\n")
	buf.WriteString("  edge [fontsize=9];\n")

	for _, s := range m.children {
		renderState(&buf, s, m.current, "  ")
	}

	if m.initial != nil {
		buf.WriteString("  __start [shape=point];\n")
		fmt.Fprintf(&buf, "  __start -> %q;\n", nodeID(m.initial))
	}

	var edges func(s *State)
	edges = func(s *State) {
		for _, t := range s.transitions {
			if t.target == nil {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", nodeID(s), nodeID(t.target), t.name)
		}
		for _, child := range s.children {
			edges(child)
		}
	}
	for _, s := range m.children {
		edges(s)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func renderState(buf *bytes.Buffer, s *State, current *State, indent string) {
	if len(s.children) > 0 {
		fmt.Fprintf(buf, "%ssubgraph \"cluster_%s\" {\n", indent, nodeID(s))
		fmt.Fprintf(buf, "%s  label=%q;\n", indent, s.String())
		fmt.Fprintf(buf, "%s  %q [shape=point, style=invis];\n", indent, nodeID(s))
		for _, child := range s.children {
			renderState(buf, child, current, indent+"  ")
		}
		fmt.Fprintf(buf, "%s}\n", indent)
		return
	}

	attrs := ""
	if s.final {
		attrs += ", peripheries=2"
	}
	if s == current {
		attrs += ", style=\"rounded,filled\", fillcolor=lightblue"
	}
	fmt.Fprintf(buf, "%s%q [label=%q%s];\n", indent, nodeID(s), s.String(), attrs)
}

func nodeID(s *State) string {
	if s.name != "" {
		return s.name
	}
	return fmt.Sprintf("s%p", s)
}
