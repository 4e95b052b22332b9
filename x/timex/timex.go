package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Delayer blocks the caller for at least ms milliseconds. There is no upper
// bound and no failure mode.
type Delayer interface {
	Delay(ms uint32)
}

// Sleeper is the Delayer backed by time.Sleep. On targets whose scheduler
// cannot promise the lower bound the wait is best effort.
type Sleeper struct{}

func (Sleeper) Delay(ms uint32) {
	if ms == 0 {
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// DelayFunc adapts a plain function to Delayer.
type DelayFunc func(ms uint32)

func (f DelayFunc) Delay(ms uint32) { f(ms) }
