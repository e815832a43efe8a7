package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTimes(t *testing.T) {
	slots := GenerateTimes(8, 17, 30)

	assert.Len(t, slots, 18)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "08:30", slots[1])
	assert.Equal(t, "16:30", slots[len(slots)-1])
	assert.True(t, slots.Contains("10:00"))
	assert.False(t, slots.Contains("17:00"))
	assert.False(t, slots.Contains("10:15"))
}

func TestGenerateTimes_Degenerate(t *testing.T) {
	assert.Empty(t, GenerateTimes(17, 8, 30))
	assert.Empty(t, GenerateTimes(8, 17, 0))
}
