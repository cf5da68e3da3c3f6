package statemachinex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateStartStates(t *testing.T) {
	require.NoError(t, validateStartStates([]*State{NewState("A")}))

	err := validateStartStates(nil)
	require.ErrorIs(t, err, ErrStartStates)

	// No parallel child mode exists, so no states qualify as mutually
	// parallel and a multi-state start is always a configuration error.
	err = validateStartStates([]*State{NewState("A"), NewState("B")})
	require.ErrorIs(t, err, ErrStartStates)
}
