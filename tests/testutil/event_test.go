package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingHandler(t *testing.T) {
	h := NewRecordingHandler("PaymentSettled")
	assert.Equal(t, []string{"PaymentSettled"}, h.EventTypes())

	tenant := uuid.New()
	first := NewTestEvent("PaymentSettled", tenant)
	require.NoError(t, h.Handle(t.Context(), first))
	require.NoError(t, h.Handle(t.Context(), NewTestEvent("TripCreated", tenant)))

	assert.Equal(t, 2, h.Count(""))
	assert.Equal(t, 1, h.Count("PaymentSettled"))
	assert.Same(t, first, h.Handled()[0])

	h.SetError(assert.AnError)
	assert.ErrorIs(t, h.Handle(t.Context(), first), assert.AnError)
}

func TestNewTestEvent(t *testing.T) {
	tenant := uuid.New()
	e := NewTestEvent("TripCreated", tenant)

	assert.NotEqual(t, uuid.Nil, e.EventID())
	assert.NotEqual(t, uuid.Nil, e.AggregateID())
	assert.Equal(t, "TripCreated", e.EventType())
	assert.Equal(t, "TestAggregate", e.AggregateType())
	assert.Equal(t, tenant, e.TenantID())
	assert.False(t, e.OccurredAt().IsZero())
}
