package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

// Handler return values
const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps a sorted list of pending timers. A target owns
// exactly one Scheduler and drives it from its timer interrupt (or the
// main loop on hosts); handlers therefore run in interrupt context and
// must be O(1) and allocation-free.
type Scheduler struct {
	lock IRQLock
	head *Timer
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule adds a timer to the schedule.
func (s *Scheduler) Schedule(t *Timer) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.insert(t)
}

// insert places a timer in sorted order by WakeTime. Ordering uses the
// signed tick difference so timers stay sorted across the uint32 wrap
// of the tick clock.
func (s *Scheduler) insert(t *Timer) {
	if s.head == nil || timeBefore(t.WakeTime, s.head.WakeTime) {
		t.Next = s.head
		s.head = t
		return
	}

	current := s.head
	for current.Next != nil && timeBefore(current.Next.WakeTime, t.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Cancel removes a timer from the schedule if it is pending. Safe to
// call for timers that already fired or were never scheduled.
func (s *Scheduler) Cancel(t *Timer) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.head == t {
		s.head = t.Next
		t.Next = nil
		return
	}
	for current := s.head; current != nil; current = current.Next {
		if current.Next == t {
			current.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// Dispatch runs every timer due at the given time. Handlers returning
// SF_RESCHEDULE are re-inserted at their updated WakeTime.
func (s *Scheduler) Dispatch(now uint32) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for s.head != nil && !timeBefore(now, s.head.WakeTime) {
		timer := s.head
		s.head = timer.Next
		timer.Next = nil // avoid stale links when handlers reschedule

		result := timer.Handler(timer)

		if result == SF_RESCHEDULE {
			s.insert(timer)
		}
	}
}

// timeBefore reports whether tick a precedes tick b on the wrapping
// clock. Valid while the two are within half the uint32 range, about
// 178s at the 12MHz tick rate.
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// NextWake returns the wake time of the earliest pending timer.
func (s *Scheduler) NextWake() (uint32, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.head == nil {
		return 0, false
	}
	return s.head.WakeTime, true
}

// Pending reports whether any timers are waiting.
func (s *Scheduler) Pending() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.head != nil
}
