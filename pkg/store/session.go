package store

import "time"

// Record is the accumulated extraction result, keyed by field name.
type Record map[string]interface{}

// Turn is one entry of the conversation log
type Turn struct {
	Role string `json:"role"` // "user" | "assistant"
	Text string `json:"text"`
}

// Answer is the literal reply given to one clarification question.
// Value is nil when the user declined to answer.
type Answer struct {
	Question string  `json:"question"`
	Value    *string `json:"value"`
}

// Document is a generated artifact (user stories, business rules, ...) kept
// alongside the session but never merged back into the record.
type Document struct {
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	ObjectKey string    `json:"object_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the explicit dialogue context for one user conversation.
// Every dialogue transition takes a Session and returns a new one.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	State  string `json:"state"` // "IDLE" | "CLARIFYING"

	// THE RECORD (what we know)
	Record Record `json:"record"`

	// THE GAPS (what we still need)
	MissingFields []string `json:"missing_fields"`
	Questions     []string `json:"questions"`
	Cursor        int      `json:"cursor"`

	Log       []Turn     `json:"log"`
	Answers   []Answer   `json:"answers"`
	Documents []Document `json:"documents"`

	// ExtractionDone needs a non-empty Record as well as no missing fields
	// and no queued questions, so a failed first analysis is not complete.
	ExtractionDone bool      `json:"extraction_done"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const (
	StateIdle       = "IDLE"
	StateClarifying = "CLARIFYING"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// NewSession returns an empty session in the Idle state.
func NewSession(id, userID string) Session {
	return Session{
		ID:     id,
		UserID: userID,
		State:  StateIdle,
		Record: Record{},
	}
}

// Clone returns a deep enough copy for transitions: slices and the record map
// are copied, record values are shared.
func (s Session) Clone() Session {
	c := s
	c.Record = make(Record, len(s.Record))
	for k, v := range s.Record {
		c.Record[k] = v
	}
	c.MissingFields = append([]string(nil), s.MissingFields...)
	c.Questions = append([]string(nil), s.Questions...)
	c.Log = append([]Turn(nil), s.Log...)
	c.Answers = append([]Answer(nil), s.Answers...)
	c.Documents = append([]Document(nil), s.Documents...)
	return c
}

// CurrentQuestion returns the question under the cursor, if any.
func (s Session) CurrentQuestion() (string, bool) {
	if s.State != StateClarifying || s.Cursor < 0 || s.Cursor >= len(s.Questions) {
		return "", false
	}
	return s.Questions[s.Cursor], true
}
