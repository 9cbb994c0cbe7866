package challenges

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"active to pending", StatusActive, StatusPendingValidation, true},
		{"pending to validated", StatusPendingValidation, StatusValidated, true},
		{"pending to rejected", StatusPendingValidation, StatusRejected, true},
		{"validated to cleared", StatusValidated, StatusCleared, true},
		{"active straight to validated", StatusActive, StatusValidated, false},
		{"rejected is terminal", StatusRejected, StatusActive, false},
		{"cleared is terminal", StatusCleared, StatusActive, false},
		{"validated cannot be rejected", StatusValidated, StatusRejected, false},
		{"no self loop", StatusActive, StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsOpen(t *testing.T) {
	require.True(t, IsOpen(StatusActive))
	require.True(t, IsOpen(StatusPendingValidation))
	require.True(t, IsOpen(StatusValidated))
	require.False(t, IsOpen(StatusRejected))
	require.False(t, IsOpen(StatusCleared))
}
