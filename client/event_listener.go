package client

import "time"

type EventListener interface {
	OnSubmitted()
	OnSettled(latency time.Duration)
	OnReverted()
	OnSync(duration time.Duration, err error)
	OnPollAttempt()
}

type SelectiveListener struct {
	OnSubmittedCb   func()
	OnSettledCb     func(latency time.Duration)
	OnRevertedCb    func()
	OnSyncCb        func(duration time.Duration, err error)
	OnPollAttemptCb func()
}

func (l *SelectiveListener) OnSubmitted() {
	if l.OnSubmittedCb != nil {
		l.OnSubmittedCb()
	}
}

func (l *SelectiveListener) OnSettled(latency time.Duration) {
	if l.OnSettledCb != nil {
		l.OnSettledCb(latency)
	}
}

func (l *SelectiveListener) OnReverted() {
	if l.OnRevertedCb != nil {
		l.OnRevertedCb()
	}
}

func (l *SelectiveListener) OnSync(duration time.Duration, err error) {
	if l.OnSyncCb != nil {
		l.OnSyncCb(duration, err)
	}
}

func (l *SelectiveListener) OnPollAttempt() {
	if l.OnPollAttemptCb != nil {
		l.OnPollAttemptCb()
	}
}
