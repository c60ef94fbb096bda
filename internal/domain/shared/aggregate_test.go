package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseAggregateRoot_VersionPerUnitOfWork(t *testing.T) {
	a := NewBaseAggregateRoot()
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, 1, a.ExpectedVersion())

	a.IncrementVersion()
	a.IncrementVersion()
	assert.Equal(t, 2, a.Version)
	assert.Equal(t, 1, a.ExpectedVersion())

	a.MarkSaved()
	assert.Equal(t, 2, a.ExpectedVersion())
	a.IncrementVersion()
	assert.Equal(t, 3, a.Version)
}
