package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysLeft(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		expires time.Time
		want    int
	}{
		{"full thirty days", base, base.Add(30 * 24 * time.Hour), 30},
		{"partial day rounds up", base, base.Add(24*time.Hour + time.Minute), 2},
		{"exactly one day", base, base.Add(24 * time.Hour), 1},
		{"final partial day", base, base.Add(6 * time.Hour), 1},
		{"boundary is zero", base, base, 0},
		{"past expiry clamps to zero", base, base.Add(-time.Millisecond), 0},
		{"long past expiry", base, base.Add(-40 * 24 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, daysLeft(tt.now, tt.expires))
		})
	}
}

func TestStatus_Entitled(t *testing.T) {
	assert.False(t, Status{State: StateNone}.Entitled())
	assert.True(t, Status{State: StateTrialActive}.Entitled())
	assert.False(t, Status{State: StateTrialExpired}.Entitled())
	assert.True(t, Status{State: StateFullActive}.Entitled())
}
