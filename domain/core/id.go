package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// JudgmentID identifies one validate → predict → score run.
type JudgmentID ID

func (id JudgmentID) String() string { return ID(id).String() }

// NewJudgmentID creates a fresh judgment identifier
func NewJudgmentID() JudgmentID {
	return JudgmentID(NewID())
}

// ParseJudgmentID parses a string into JudgmentID
func ParseJudgmentID(s string) (JudgmentID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("judgment ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid judgment ID %q: %w", s, err)
	}
	return JudgmentID(s), nil
}
