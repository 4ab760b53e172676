package frame

import (
	"sync"
	"time"
)

const (
	DefaultInterval = 16 * time.Millisecond // ~60 frames por segundo
)

// TickerScheduler ejecuta cada trabajo en el próximo límite de frame,
// alineado a un reloj común para todas las sesiones.
type TickerScheduler struct {
	interval time.Duration
	epoch    time.Time
	now      func() time.Time
}

// NewTickerScheduler crea el scheduler; interval <= 0 usa DefaultInterval
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &TickerScheduler{
		interval: interval,
		epoch:    time.Now(),
		now:      time.Now,
	}
}

// Interval devuelve la duración de un frame
func (s *TickerScheduler) Interval() time.Duration {
	return s.interval
}

// Schedule difiere work hasta el próximo frame. El cancel devuelto es idempotente.
func (s *TickerScheduler) Schedule(work func()) func() {
	timer := time.AfterFunc(s.untilNextFrame(), work)
	var once sync.Once
	return func() {
		once.Do(func() { timer.Stop() })
	}
}

func (s *TickerScheduler) untilNextFrame() time.Duration {
	elapsed := s.now().Sub(s.epoch)
	if elapsed < 0 {
		return s.interval
	}
	return s.interval - elapsed%s.interval
}

// SyncScheduler ejecuta el trabajo en el acto, en la goroutine llamadora
type SyncScheduler struct{}

func (SyncScheduler) Schedule(work func()) func() {
	work()
	return func() {}
}
