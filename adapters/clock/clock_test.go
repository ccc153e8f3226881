package clock_test

import (
	"testing"
	"time"

	"github.com/artpar/contentcore/adapters/clock"
)

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := clock.Real{}.Now()
	if got.Before(before) {
		t.Errorf("Now() = %v, before %v", got, before)
	}
}

func TestFake(t *testing.T) {
	start := time.Unix(1700000000, 0)
	c := clock.NewFake(start)

	if !c.Now().Equal(start) || !c.Now().Equal(start) {
		t.Error("frozen clock moved")
	}

	c.Advance(time.Minute)
	if got := c.Now(); !got.Equal(start.Add(time.Minute)) {
		t.Errorf("Now() after Advance = %v", got)
	}

	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() after Set = %v", got)
	}
}

func TestTicking(t *testing.T) {
	start := time.Unix(1700000000, 0)
	c := clock.NewTicking(start, time.Second)

	first, second := c.Now(), c.Now()
	if !first.Equal(start) {
		t.Errorf("first Now() = %v, want %v", first, start)
	}
	if second.Sub(first) != time.Second {
		t.Errorf("step = %v, want 1s", second.Sub(first))
	}
}
