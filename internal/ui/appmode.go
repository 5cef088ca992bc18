package ui

// AppMode identifies which console page currently owns the screen.
type AppMode int

const (
	ModeModelHub AppMode = iota
	ModePlayground
	ModeStressTest
	ModeLaunch
)

func (m AppMode) String() string {
	switch m {
	case ModeModelHub:
		return "model-hub"
	case ModePlayground:
		return "playground"
	case ModeStressTest:
		return "stress-test"
	case ModeLaunch:
		return "launch"
	default:
		return "unknown"
	}
}

// Title is the human-readable page name shown in the header bar.
func (m AppMode) Title() string {
	switch m {
	case ModeModelHub:
		return "Model Hub"
	case ModePlayground:
		return "Playground"
	case ModeStressTest:
		return "Stress Test"
	case ModeLaunch:
		return "Launch"
	default:
		return "Unknown"
	}
}
