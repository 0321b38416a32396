package navigator

import "fmt"

type State int

const (
	StateLoggedOut State = iota
	StateLoggedIn
	StateSearchPending
	StatePatientLoaded
	StateHistoryTab
	StateModalOpen
	StateModalClosed
	StatePlanTab
	StateIdle
)

var stateNames = map[State]string{
	StateLoggedOut:     "logged_out",
	StateLoggedIn:      "logged_in",
	StateSearchPending: "search_pending",
	StatePatientLoaded: "patient_loaded",
	StateHistoryTab:    "history_tab",
	StateModalOpen:     "modal_open",
	StateModalClosed:   "modal_closed",
	StatePlanTab:       "plan_tab",
	StateIdle:          "idle",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var transitions = map[State][]State{
	StateLoggedOut:     {StateLoggedIn},
	StateLoggedIn:      {StateSearchPending},
	StateSearchPending: {StatePatientLoaded},
	StatePatientLoaded: {StateHistoryTab},
	StateHistoryTab:    {StateModalOpen, StatePlanTab},
	StateModalOpen:     {StateModalClosed},
	StateModalClosed:   {StateModalOpen, StatePlanTab},
	StatePlanTab:       {StateIdle},
}

// machine tracks the navigator's position in the UI. Any logged-in state may
// reset to StateLoggedIn, the neutral desk screen.
type machine struct {
	state State
}

func (m *machine) Current() State {
	return m.state
}

func (m *machine) To(next State) error {
	if next == StateLoggedIn && m.state != StateLoggedOut {
		m.state = next
		return nil
	}
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, next)
}
