package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
)

func TestDefaultSchedulesParse(t *testing.T) {
	s := NewScheduler()
	for _, job := range Default(nil, &config.Config{}) {
		assert.NoError(t, s.Add(job), job.Name)
	}
}

func TestAddRejectsBadSchedule(t *testing.T) {
	s := NewScheduler()
	err := s.Add(Job{Name: "bad", Schedule: "every day", Run: func() error { return nil }})
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler()
	s.Start()
	s.Stop()
}
