// Package definition loads declarative machine definitions from YAML and
// compiles them into runnable machines. Definitions describe topology only
// (states, hierarchy, final flags, named-event transitions); behavior hooks
// are attached to the built machine through the core API.
package definition

import (
	"fmt"

	"gopkg.in/yaml.v3"

	smx "github.com/comalice/statemachinex"
)

// Definition is the root of a machine definition file.
type Definition struct {
	Name    string  `yaml:"name"`
	Initial string  `yaml:"initial"`
	States  []State `yaml:"states"`
}

// State defines one state, optionally nested.
type State struct {
	Name        string       `yaml:"name"`
	Final       bool         `yaml:"final,omitempty"`
	Initial     string       `yaml:"initial,omitempty"`
	States      []State      `yaml:"states,omitempty"`
	Transitions []Transition `yaml:"transitions,omitempty"`
}

// Transition defines an edge triggered by a NamedEvent.
type Transition struct {
	Name   string `yaml:"name,omitempty"`
	Event  string `yaml:"event"`
	Target string `yaml:"target"`
}

// Parse unmarshals and validates a YAML machine definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the definition tree: state names present and unique,
// initial designations and transition targets resolvable.
func (d *Definition) Validate() error {
	names := make(map[string]bool)
	var collect func(states []State) error
	collect = func(states []State) error {
		for _, s := range states {
			if s.Name == "" {
				return fmt.Errorf("definition %q: state without name", d.Name)
			}
			if names[s.Name] {
				return fmt.Errorf("definition %q: duplicate state %q", d.Name, s.Name)
			}
			names[s.Name] = true
			if err := collect(s.States); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(d.States); err != nil {
		return err
	}

	if d.Initial == "" {
		return fmt.Errorf("definition %q: initial state is required", d.Name)
	}
	topLevel := false
	for _, s := range d.States {
		if s.Name == d.Initial {
			topLevel = true
			break
		}
	}
	if !topLevel {
		return fmt.Errorf("definition %q: initial state %q must be a top-level state", d.Name, d.Initial)
	}

	var check func(states []State) error
	check = func(states []State) error {
		for _, s := range states {
			if s.Initial != "" {
				found := false
				for _, child := range s.States {
					if child.Name == s.Initial {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("definition %q: state %q: initial child %q not defined", d.Name, s.Name, s.Initial)
				}
			}
			for _, t := range s.Transitions {
				if t.Event == "" {
					return fmt.Errorf("definition %q: state %q: transition without event", d.Name, s.Name)
				}
				if t.Target == "" || !names[t.Target] {
					return fmt.Errorf("definition %q: state %q: transition target %q not defined", d.Name, s.Name, t.Target)
				}
			}
			if err := check(s.States); err != nil {
				return err
			}
		}
		return nil
	}
	return check(d.States)
}

// Build compiles the definition into a machine. Events in the definition
// match smx.NamedEvent values by name.
func (d *Definition) Build(opts ...smx.Option) (*smx.Machine, error) {
	b := smx.NewBuilder(d.Name, opts...)

	var declare func(states []State, parent string)
	declare = func(states []State, parent string) {
		for _, s := range states {
			sb := b.State(s.Name)
			if parent != "" {
				sb.Parent(parent)
			}
			if s.Final {
				sb.Final()
			}
			for _, t := range s.Transitions {
				name := t.Name
				if name == "" {
					name = t.Event
				}
				sb.OnMatch(name, smx.MatchNamed(t.Event), t.Target)
			}
			declare(s.States, s.Name)
		}
	}
	declare(d.States, "")

	// Initial-child designations after all states are declared.
	var initials func(states []State)
	initials = func(states []State) {
		for _, s := range states {
			if s.Initial != "" {
				b.State(s.Initial).Initial()
			}
			initials(s.States)
		}
	}
	initials(d.States)
	b.State(d.Initial).Initial()

	m, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build definition %q: %w", d.Name, err)
	}
	return m, nil
}
