package dialogue

import "time"

// Speaker labels one side of a transcript turn.
type Speaker string

const (
	SpeakerUser Speaker = "User"
	SpeakerBot  Speaker = "Library Bot"
	SpeakerAI   Speaker = "AI"
)

// Turn is one transcript line.
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// DefaultMaxTranscript bounds a session transcript when no limit is given.
const DefaultMaxTranscript = 500

// transcript is a ring of the most recent turns. A limit <= 0 keeps every
// turn.
type transcript struct {
	limit int
	buf   []Turn
	start int
}

func newTranscript(limit int) *transcript {
	return &transcript{limit: limit}
}

func (t *transcript) add(turn Turn) {
	if t.limit <= 0 || len(t.buf) < t.limit {
		t.buf = append(t.buf, turn)
		return
	}
	t.buf[t.start] = turn
	t.start = (t.start + 1) % t.limit
}

// turns returns the turns oldest first.
func (t *transcript) turns() []Turn {
	out := make([]Turn, 0, len(t.buf))
	out = append(out, t.buf[t.start:]...)
	return append(out, t.buf[:t.start]...)
}

func (t *transcript) len() int { return len(t.buf) }

func (t *transcript) reset() {
	t.buf = nil
	t.start = 0
}
