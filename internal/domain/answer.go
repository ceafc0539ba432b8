package domain

import (
	"bytes"
	"encoding/json"
)

// Answer is a user's response to one question. The zero value is Unanswered.
type Answer struct {
	value    string
	answered bool
}

// Unanswered marks a slot the user has not touched.
var Unanswered = Answer{}

// AnswerOf records a user-provided value, including the empty string.
func AnswerOf(value string) Answer {
	return Answer{value: value, answered: true}
}

func (a Answer) Answered() bool { return a.answered }

func (a Answer) Value() string { return a.value }

func (a Answer) String() string {
	if !a.answered {
		return "<unanswered>"
	}
	return a.value
}

// MarshalJSON encodes Unanswered as null.
func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.answered {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Unanswered
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*a = AnswerOf(value)
	return nil
}
