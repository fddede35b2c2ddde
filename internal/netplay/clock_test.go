package netplay

import (
	"testing"
	"time"
)

func TestClockFrameMapping(t *testing.T) {
	start := time.Now()
	clock := NewClock(start)

	cases := []struct {
		elapsed time.Duration
		want    uint64
	}{
		{0, 0},
		{FrameDuration - time.Nanosecond, 0},
		{FrameDuration, 1},
		{time.Second, 60},
		{2*time.Second + FrameDuration/2, 120},
	}
	for _, c := range cases {
		if got := clock.CurrentFrame(start.Add(c.elapsed)); got != c.want {
			t.Errorf("CurrentFrame(+%v) = %d, want %d", c.elapsed, got, c.want)
		}
	}
}

func TestClockBeforeStart(t *testing.T) {
	start := time.Now()
	clock := NewClock(start)
	if got := clock.CurrentFrame(start.Add(-time.Second)); got != 0 {
		t.Errorf("CurrentFrame before start = %d, want 0", got)
	}
}

func TestTargetLocalFrameKeepsOneFrameOfSlack(t *testing.T) {
	start := time.Now()
	clock := NewClock(start)

	if got := clock.TargetLocalFrame(start); got != 0 {
		t.Errorf("TargetLocalFrame at start = %d, want 0", got)
	}
	if got := clock.TargetLocalFrame(start.Add(time.Second)); got != 59 {
		t.Errorf("TargetLocalFrame at +1s = %d, want 59", got)
	}
}
