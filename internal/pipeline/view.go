package pipeline

import (
	"time"

	"github.com/SAWGraph/public/internal/mapview"
	"github.com/SAWGraph/public/internal/sparql/query"
)

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Selection is the user input behind a View, echoed back for display.
type Selection struct {
	Shape      query.Shape `json:"shape"`
	Industries []string    `json:"industries"`
	Counties   []string    `json:"counties,omitempty"`
	Limit      int         `json:"limit"`
	Depth      query.Depth `json:"depth"`
}

// SetResult reports the outcome of one query in the batch.
type SetResult struct {
	Set       string `json:"set"`
	Title     string `json:"title"`
	QueryHash string `json:"queryHash"`
	Status    string `json:"status"`
	ErrorKind string `json:"errorKind,omitempty"`
	Rows      int    `json:"rows"`
	Duration  string `json:"duration"`
}

// View is everything rendered for one interaction. It is the value held by
// the session slot.
type View struct {
	Label     string            `json:"label"`
	Selection Selection         `json:"selection"`
	At        time.Time         `json:"at"`
	Map       mapview.Map       `json:"map"`
	Tables    []mapview.Summary `json:"tables"`
	Sets      []SetResult       `json:"sets"`
	Messages  []Message         `json:"messages,omitempty"`
	// Stored is false when the primary set failed and the slot kept its
	// previous contents.
	Stored bool `json:"stored"`
}

func (v *View) addMessage(l Level, text string) {
	v.Messages = append(v.Messages, Message{Level: l, Text: text})
}
