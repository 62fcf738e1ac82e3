package blanks

import "time"

// One countdown is active per room at a time. Timers are tagged with a
// generation; starting or cancelling bumps the generation, so a stale
// goroutine that fires after its phase ended sees the mismatch and
// exits without touching the room.

func (r *Room) startTimerLocked(seconds int) {
	r.timerGen++
	r.timerMax = seconds
	r.timerLeft = seconds
	go r.runTimer(r.timerGen)
}

func (r *Room) cancelTimerLocked() {
	r.timerGen++
	r.timerLeft = 0
	r.timerMax = 0
}

func (r *Room) runTimer(gen int) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		if r.closed || gen != r.timerGen {
			r.mu.Unlock()
			return
		}
		if r.paused {
			// Frozen: remaining time is preserved exactly, no ticks
			// reach the clients.
			r.mu.Unlock()
			continue
		}
		r.timerLeft--
		r.broadcastLocked(TimerTickMessage{
			Type:     "timer_tick",
			TimeLeft: r.timerLeft,
			MaxTime:  r.timerMax,
		})
		if r.timerLeft <= 0 {
			r.timerGen++
			r.timerExpiredLocked()
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
	}
}

// timerExpiredLocked applies the phase-timeout effect for whatever phase
// the room is in when the countdown reaches zero.
func (r *Room) timerExpiredLocked() {
	switch r.phase {
	case PhaseAnswering:
		// Players who never submitted sit this round out, no penalty.
		r.closeAnsweringLocked()
	case PhaseVoting:
		// The czar never picked; the round has no winner.
		r.finishRoundLocked("")
	case PhaseCountdown:
		r.nextRoundLocked()
	}
}
