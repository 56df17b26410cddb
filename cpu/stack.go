package cpu

const (
	STACK_LIMIT = 16 // Maximum call depth
)

// Stack is the fixed-capacity return address stack.
// Sp is the number of entries in use; it is zero only when empty.
type Stack struct {
	Data [STACK_LIMIT]uint16
	Sp   int
}

// Push a return address. Returns ErrStackFull at capacity.
func (s *Stack) Push(value uint16) (err error) {
	if s.Full() {
		err = ErrStackFull
		return
	}

	s.Data[s.Sp] = value
	s.Sp++
	return
}

// Pop a return address. Returns ErrStackEmpty on an empty stack.
func (s *Stack) Pop() (value uint16, err error) {
	value, ok := s.Peek()
	if !ok {
		err = ErrStackEmpty
		return
	}

	s.Sp--
	return
}

func (s *Stack) Empty() bool {
	return s.Sp == 0
}

func (s *Stack) Full() bool {
	return s.Sp == STACK_LIMIT
}

func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[s.Sp-1], true
}

func (s *Stack) Reset() {
	clear(s.Data[:])
	s.Sp = 0
}
