package domain

type Category string

const (
	CategoryNatural        Category = "natural"
	CategoryPredictable    Category = "predictable"
	CategoryGeneric        Category = "generic"
	CategoryOverlyPolished Category = "overly_polished"
)

// RewriteIdea is a concrete, optional edit the writer can try on a sentence.
type RewriteIdea struct {
	Kind    string `json:"kind"`
	Hint    string `json:"hint"`
	Example string `json:"example,omitempty"`
}

// SentenceDiagnostic explains one sentence's contribution to the document score.
type SentenceDiagnostic struct {
	Span            SentenceSpan           `json:"span"`
	Text            string                 `json:"text"`
	Signals         SignalVector           `json:"signals"`
	Score           *Score                 `json:"score,omitempty"`
	Percentiles     map[SignalName]float64 `json:"percentiles"`
	Category        Category               `json:"category"`
	DominantSignals []SignalName           `json:"dominant_signals"`
	Rationale       string                 `json:"rationale"`
	Suggestion      string                 `json:"suggestion"`
	RewriteIdeas    []RewriteIdea          `json:"rewrite_ideas,omitempty"`
}

// SignalIssue summarizes how often a signal was unavailable for one reason.
type SignalIssue struct {
	Signal SignalName        `json:"signal"`
	Grain  Grain             `json:"grain"`
	Reason UnavailableReason `json:"reason"`
	Count  int               `json:"count"`
}

// Report is the full result of analyzing one Document.
type Report struct {
	Document     *Document            `json:"document"`
	Spans        []SentenceSpan       `json:"spans"`
	Score        *Score               `json:"score"`
	Sentences    []SentenceDiagnostic `json:"sentences"`
	SignalIssues []SignalIssue        `json:"signal_issues,omitempty"`
	Profile      string               `json:"profile"`
}
