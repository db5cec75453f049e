package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Duration
		max      time.Duration
		attempts int
		want     time.Duration
	}{
		{
			name:     "first attempt uses base",
			base:     2 * time.Second,
			max:      30 * time.Second,
			attempts: 0,
			want:     2 * time.Second,
		},
		{
			name:     "doubles per attempt",
			base:     2 * time.Second,
			max:      30 * time.Second,
			attempts: 3,
			want:     16 * time.Second,
		},
		{
			name:     "capped at max",
			base:     2 * time.Second,
			max:      30 * time.Second,
			attempts: 5,
			want:     30 * time.Second,
		},
		{
			name:     "negative attempts treated as zero",
			base:     2 * time.Second,
			max:      30 * time.Second,
			attempts: -4,
			want:     2 * time.Second,
		},
		{
			name:     "huge attempt count does not overflow",
			base:     2 * time.Second,
			max:      30 * time.Second,
			attempts: 1000,
			want:     30 * time.Second,
		},
		{
			name:     "zero base falls back to a second",
			base:     0,
			max:      30 * time.Second,
			attempts: 0,
			want:     time.Second,
		},
		{
			name:     "zero max falls back to thirty seconds",
			base:     2 * time.Second,
			max:      0,
			attempts: 10,
			want:     30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := backoffDelay(tt.base, tt.max, tt.attempts)
			assert.Equal(t, tt.want, got)
		})
	}
}
