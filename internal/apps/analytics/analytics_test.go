package analytics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/grading"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
)

func TestCacheKey(t *testing.T) {
	id := uuid.MustParse("5f0c6a4e-1c2b-4d0e-9a55-7b0f3e1d2c3a")
	assert.Equal(t, "analytics:admin:"+id.String(), CacheKey(authctx.Actor{UserID: id, Role: "ADMIN"}))
	assert.Equal(t, "analytics:program_chair:"+id.String(), CacheKey(authctx.Actor{UserID: id, Role: "Program Chair"}))
}

func TestCombine(t *testing.T) {
	stats := map[uuid.UUID]grading.ClassStats{
		uuid.New(): {Graded: 3, Passed: 3, Average: 90},
		uuid.New(): {Graded: 1, Failed: 1, Average: 70},
		uuid.New(): {},
	}
	out := Combine(stats)
	assert.Equal(t, 4, out.Graded)
	assert.Equal(t, 3, out.Passed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 85.0, out.Average)
	assert.Equal(t, 75.0, out.PassRate())

	assert.Equal(t, grading.ClassStats{}, Combine(nil))
}
