package models

import "time"

// ChatSession describes one interactive assistant session.
type ChatSession struct {
	ID        string    `yaml:"id"`
	StartedAt time.Time `yaml:"started_at"`
	EndedAt   time.Time `yaml:"ended_at,omitempty"`
	Turns     int       `yaml:"turns"`
}

// ChatTurn is one question/answer exchange within a session.
type ChatTurn struct {
	Index    int       `yaml:"index"`
	AskedAt  time.Time `yaml:"asked_at"`
	Question string    `yaml:"question"`
	Answer   string    `yaml:"answer"`
}

// TranscriptIndex is the persisted index of all captured sessions.
type TranscriptIndex struct {
	Version  string        `yaml:"version"`
	Sessions []ChatSession `yaml:"sessions"`
}
