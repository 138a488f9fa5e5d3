package operations

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker tracks item progress through one work list
type ProgressTracker struct {
	WorkList  string
	Total     int
	Current   int
	StartTime time.Time
	mu        sync.Mutex
	now       func() time.Time
}

// newProgressTracker creates a tracker for total pending items timed by now
func newProgressTracker(workList string, total int, now func() time.Time) *ProgressTracker {
	return &ProgressTracker{
		WorkList:  workList,
		Total:     total,
		StartTime: now(),
		now:       now,
	}
}

// Increment records one more processed item
func (p *ProgressTracker) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Current++
}

// GetProgress returns the current progress state
func (p *ProgressTracker) GetProgress() (current, total int, percentage float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Total > 0 {
		percentage = float64(p.Current) / float64(p.Total) * 100
	}
	return p.Current, p.Total, percentage
}

// GetETA estimates the time remaining from the average item duration so far
func (p *ProgressTracker) GetETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Current == 0 || p.Total == 0 {
		return "calculating..."
	}

	elapsed := p.now().Sub(p.StartTime)
	rate := float64(p.Current) / elapsed.Seconds()
	if rate == 0 {
		return "calculating..."
	}

	remaining := float64(p.Total-p.Current) / rate
	switch {
	case remaining < 60:
		return fmt.Sprintf("%.0f seconds", remaining)
	case remaining < 3600:
		return fmt.Sprintf("%.1f minutes", remaining/60)
	default:
		return fmt.Sprintf("%.1f hours", remaining/3600)
	}
}

// IsComplete returns true once every pending item was processed
func (p *ProgressTracker) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Current >= p.Total
}
