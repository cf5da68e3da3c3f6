package statemachinex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smx "github.com/comalice/statemachinex"
)

func TestAddStateDuplicateNameFails(t *testing.T) {
	m := smx.NewMachine("dup")
	_, err := m.AddState(smx.NewState("A"))
	require.NoError(t, err)

	_, err = m.AddState(smx.NewState("A"))
	require.ErrorIs(t, err, smx.ErrDuplicateState)
}

func TestAddStateDuplicateNameInSubtreeFails(t *testing.T) {
	m := smx.NewMachine("dup")
	_, err := m.AddState(smx.NewState("A"))
	require.NoError(t, err)

	parent := smx.NewState("P")
	_, err = parent.AddState(smx.NewState("A"))
	require.NoError(t, err)

	// The whole subtree is validated before registration.
	_, err = m.AddState(parent)
	require.ErrorIs(t, err, smx.ErrDuplicateState)
	assert.Nil(t, m.FindState("P"))
}

func TestUnnamedStatesAreNotRegistered(t *testing.T) {
	m := smx.NewMachine("anon")
	_, err := m.AddState(smx.NewState(""))
	require.NoError(t, err)
	_, err = m.AddState(smx.NewState(""))
	require.NoError(t, err)

	assert.Len(t, m.States(), 2)
	assert.Nil(t, m.FindState(""))
}

func TestTopologyFrozenAfterStart(t *testing.T) {
	m := smx.NewMachine("frozen")
	a := smx.NewState("A")
	_, err := m.AddInitialState(a)
	require.NoError(t, err)
	require.NoError(t, m.Start())

	_, err = m.AddState(smx.NewState("B"))
	require.ErrorIs(t, err, smx.ErrMachineStarted)

	_, err = a.AddTransition(smx.NewTransition("late", smx.MatchExact[eventOne](), a))
	require.ErrorIs(t, err, smx.ErrMachineStarted)

	_, err = a.AddState(smx.NewState("child"))
	require.ErrorIs(t, err, smx.ErrMachineStarted)

	err = m.RemoveState(a)
	require.ErrorIs(t, err, smx.ErrMachineStarted)
}

func TestAddAttachedStateFails(t *testing.T) {
	m := smx.NewMachine("attached")
	a := smx.NewState("A")
	_, err := m.AddState(a)
	require.NoError(t, err)

	other := smx.NewMachine("other")
	_, err = other.AddState(a)
	require.ErrorIs(t, err, smx.ErrStateAttached)
}

func TestFindAndRequireState(t *testing.T) {
	m := smx.NewMachine("lookup")
	a := smx.NewState("A")
	_, err := m.AddState(a)
	require.NoError(t, err)

	assert.Same(t, a, m.FindState("A"))
	assert.Nil(t, m.FindState("missing"))

	got, err := m.RequireState("A")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = m.RequireState("missing")
	require.ErrorIs(t, err, smx.ErrStateNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestRemoveState(t *testing.T) {
	m := smx.NewMachine("remove")
	parent := smx.NewState("P")
	child := smx.NewState("C")
	_, err := parent.AddState(child)
	require.NoError(t, err)
	_, err = m.AddInitialState(parent)
	require.NoError(t, err)

	require.NoError(t, m.RemoveState(parent))

	assert.Nil(t, m.FindState("P"))
	assert.Nil(t, m.FindState("C"))
	assert.Nil(t, m.InitialState())
	assert.Empty(t, m.States())

	// The name is free again.
	_, err = m.AddState(smx.NewState("P"))
	require.NoError(t, err)
}

func TestRemoveUnknownStateFails(t *testing.T) {
	m := smx.NewMachine("remove")
	err := m.RemoveState(smx.NewState("X"))
	require.ErrorIs(t, err, smx.ErrStateNotFound)
}

func TestSetInitialStateValidation(t *testing.T) {
	m := smx.NewMachine("initial")

	err := m.SetInitialState(smx.NewState("loose"))
	require.ErrorIs(t, err, smx.ErrStateNotFound)

	parent := smx.NewState("P")
	child := smx.NewState("C")
	_, err = parent.AddState(child)
	require.NoError(t, err)
	_, err = m.AddState(parent)
	require.NoError(t, err)

	// Machine initial must be top-level.
	err = m.SetInitialState(child)
	require.Error(t, err)

	require.NoError(t, m.SetInitialState(parent))
	assert.Same(t, parent, m.InitialState())
}

func TestSetInitialChildValidation(t *testing.T) {
	parent := smx.NewState("P")
	stranger := smx.NewState("S")

	err := parent.SetInitialState(stranger)
	require.Error(t, err)
}

func TestStateAccessors(t *testing.T) {
	parent := smx.NewState("P")
	child := smx.NewState("C")
	_, err := parent.AddState(child)
	require.NoError(t, err)

	assert.Equal(t, "P", parent.Name())
	assert.Same(t, parent, child.Parent())
	assert.Nil(t, parent.Parent())
	assert.Equal(t, []*smx.State{child}, parent.Children())
	assert.False(t, parent.Final())
	assert.True(t, smx.NewFinalState("F").Final())
}

func TestStateDataTypedAccessor(t *testing.T) {
	d := smx.NewDataState[string]("D")

	_, ok := smx.StateData[string](d)
	assert.False(t, ok)

	_, ok = d.Data()
	assert.False(t, ok)
}

func TestCompoundStateWithoutInitialChildCannotStart(t *testing.T) {
	m := smx.NewMachine("badcompound")
	parent := smx.NewState("P")
	_, err := parent.AddState(smx.NewState("C"))
	require.NoError(t, err)
	_, err = m.AddInitialState(parent)
	require.NoError(t, err)

	err = m.Start()
	require.ErrorIs(t, err, smx.ErrNoInitialState)
}
