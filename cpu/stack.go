package cpu

const (
	STACK_LIMIT = 16 // Slots in the call stack. Slot 0 is never written.
)

// Stack is the return address stack.
//
// Sp is incremented before a push stores, so the first frame lands in slot 1
// and at most STACK_LIMIT-1 frames can be held.
type Stack struct {
	Data [STACK_LIMIT]uint16
	Sp   uint8
}

// Push stores value in the next slot. Returns false, without changing the
// stack, when it is full.
func (s *Stack) Push(value uint16) (ok bool) {
	if s.Full() {
		return
	}

	s.Sp++
	s.Data[s.Sp] = value
	return true
}

// Pop returns the value in the current slot and releases it.
func (s *Stack) Pop() (value uint16, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Sp--
	}
	return
}

// Peek returns the value in the current slot.
func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[s.Sp], true
}

func (s *Stack) Empty() bool {
	return s.Sp == 0
}

func (s *Stack) Full() bool {
	return int(s.Sp) >= STACK_LIMIT-1
}

// Depth is the number of frames held.
func (s *Stack) Depth() int {
	return int(s.Sp)
}

func (s *Stack) Reset() {
	clear(s.Data[:])
	s.Sp = 0
}
