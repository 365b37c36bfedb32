package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGigabytes(t *testing.T) {
	assert.Equal(t, 0.0, gigabytes(0))
	assert.Equal(t, 1.0, gigabytes(1<<30))
	assert.Equal(t, 0.25, gigabytes(1<<28))
	assert.Equal(t, 2.5, gigabytes(5<<29))
	// Small uploads round down to a zero reading rather than inflating it.
	assert.Equal(t, 0.0, gigabytes(1024))
	assert.Equal(t, 0.01, gigabytes(10<<20))
}
