package redisclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryKey(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "dashboard:0:admin:2024-03-10", summaryKey(0, "admin", day))
	assert.Equal(t, "dashboard:7:patient:p1:2024-03-10", summaryKey(7, "patient:p1", day))
	assert.NotEqual(t, summaryKey(1, "admin", day), summaryKey(2, "admin", day))
}
