package pipeline

// State is the summary run state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fixed user-visible results.
const (
	NoContentMessage    = "No readable content found."
	FailedMessage       = "Summary failed."
	EmptySummaryMessage = "No summary generated."
	NoAnswerMessage     = "No answer found."
)

// SummaryQuery is the instruction sent to the summarization collaborator.
const SummaryQuery = "Summarize the article by explaining the problem, main claim, key idea, why it works, results, why it matters, and the author’s conclusion."

// Snapshot is a read-only copy of the orchestrator state.
type Snapshot struct {
	State State `json:"state"`
	// Result is empty while a run is in flight.
	Result         string `json:"result"`
	URL            string `json:"url"`
	ExtractSuccess bool   `json:"extractSuccess"`
	Sections       int    `json:"sections"`
	Chunks         int    `json:"chunks"`
	// ReadyURL is the page url of the last run that reached Ready.
	ReadyURL string `json:"readyUrl,omitempty"`
}

// Ready reports whether a finished result is available for display.
func (s Snapshot) Ready() bool {
	return s.Result != "" && s.State != StateRunning
}
