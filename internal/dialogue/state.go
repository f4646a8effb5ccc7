package dialogue

// Mode is the external generation state of a session.
type Mode int

const (
	ModeDisabled Mode = iota
	ModeEnabled
)

func (m Mode) String() string {
	if m == ModeEnabled {
		return "enabled"
	}
	return "disabled"
}

// aiState is a two-state machine. configure moves it to Enabled, a failed
// turn moves it to Disabled, and nothing moves it back on its own.
//
// epoch changes on every configure or clear so a turn that started under an
// older configuration cannot disable a newer one.
type aiState struct {
	mode  Mode
	gen   ExternalGenerator
	model string
	epoch uint64
}

func (s *aiState) configure(gen ExternalGenerator, model string) {
	s.gen = gen
	s.model = model
	s.mode = ModeEnabled
	s.epoch++
}

func (s *aiState) clear() {
	s.gen = nil
	s.model = ""
	s.mode = ModeDisabled
	s.epoch++
}

// active returns the generator to use for a turn, if any.
func (s *aiState) active() (ExternalGenerator, uint64, bool) {
	if s.mode != ModeEnabled || s.gen == nil {
		return nil, 0, false
	}
	return s.gen, s.epoch, true
}

// fail records a failed turn started at epoch. It reports whether the
// state actually changed.
func (s *aiState) fail(epoch uint64) bool {
	if s.mode != ModeEnabled || s.epoch != epoch {
		return false
	}
	s.mode = ModeDisabled
	return true
}

func (s *aiState) enabled() bool {
	return s.mode == ModeEnabled && s.gen != nil
}
