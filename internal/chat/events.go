package chat

// Event names emitted on the chat stream, in lifecycle order. A complete
// event is only ever observed on the fully successful path; any failure ends
// the stream with a single terminal error event instead.
const (
	EventStart          = "start"
	EventSearchComplete = "search_complete"
	EventToken          = "token"
	EventComplete       = "complete"
	EventError          = "error"
)

// Event is one discrete stream event. Data carries the JSON-serializable
// payload; the transport adapter owns the wire framing.
type Event struct {
	Name string
	Data any
}

// EmployeeSummary is the per-match summary carried by a search_complete event.
type EmployeeSummary struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
	Title string `json:"title"`
}

type startPayload struct {
	Status string `json:"status"`
}

type searchCompletePayload struct {
	ResultsCount int               `json:"results_count"`
	Employees    []EmployeeSummary `json:"employees"`
}

type tokenPayload struct {
	Content string `json:"content"`
}

type completePayload struct {
	Status string `json:"status"`
}

type errorPayload struct {
	Error string `json:"error"`
}
