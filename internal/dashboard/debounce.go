package dashboard

import (
	"sync"
	"time"
)

// Debouncer откладывает вызов до паузы длиной delay.
// Каждый Trigger отменяет предыдущий отложенный вызов и запускает отсчёт заново.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	closed bool
	wg     sync.WaitGroup
}

// NewDebouncer создаёт Debouncer с задержкой delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger планирует fn через delay, отменяя ранее запланированный вызов.
// После Close вызов игнорируется.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.gen++
	gen := d.gen
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		current := gen == d.gen && !d.closed
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel отменяет запланированный вызов, если он ещё не начался.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.gen++
}

// Close отменяет запланированный вызов и ждёт завершения уже начатого.
// После Close Trigger ничего не делает.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.stopLocked()
	d.mu.Unlock()
	d.wg.Wait()
}

// stopLocked останавливает таймер. Если колбэк не успел стартовать,
// его слот в wg освобождается здесь.
func (d *Debouncer) stopLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
}
