// Package storage persists chat transcripts as YAML files under a base
// directory, with a flock-protected counter for sequential session IDs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/confluence-assistant/pkg/models"
)

// TranscriptStore defines the interface for managing captured chat sessions
// under transcripts/.
type TranscriptStore interface {
	AddSession(session models.ChatSession, turns []models.ChatTurn) (string, error)
	GetSession(id string) (*models.ChatSession, error)
	GetSessionTurns(id string) ([]models.ChatTurn, error)
	GetRecentSessions(limit int) ([]models.ChatSession, error)
	GenerateID() (string, error)
	Load() error
	Save() error
}

type fileTranscriptStore struct {
	basePath string
	index    models.TranscriptIndex
}

// NewTranscriptStore creates a TranscriptStore backed by YAML files under
// transcripts/ in the given base directory.
func NewTranscriptStore(basePath string) TranscriptStore {
	return &fileTranscriptStore{
		basePath: basePath,
		index: models.TranscriptIndex{
			Version:  "1.0",
			Sessions: nil,
		},
	}
}

func (s *fileTranscriptStore) transcriptsDir() string {
	return filepath.Join(s.basePath, "transcripts")
}

func (s *fileTranscriptStore) indexPath() string {
	return filepath.Join(s.transcriptsDir(), "index.yaml")
}

func (s *fileTranscriptStore) counterPath() string {
	return filepath.Join(s.transcriptsDir(), ".session_counter")
}

func (s *fileTranscriptStore) sessionPath(id string) string {
	return filepath.Join(s.transcriptsDir(), id+".yaml")
}

// GenerateID reads and increments the session counter file, returning the
// next sequential ID in C-XXXXX format.
func (s *fileTranscriptStore) GenerateID() (string, error) {
	counterFile := s.counterPath()

	if err := os.MkdirAll(s.transcriptsDir(), 0o755); err != nil {
		return "", fmt.Errorf("generating session ID: creating directory: %w", err)
	}

	unlock, err := s.lockCounter()
	if err != nil {
		return "", fmt.Errorf("generating session ID: acquiring lock: %w", err)
	}
	defer unlock()

	counter := 0
	data, err := os.ReadFile(counterFile)
	if err == nil {
		trimmed := strings.TrimSpace(string(data))
		if trimmed != "" {
			counter, err = strconv.Atoi(trimmed)
			if err != nil {
				return "", fmt.Errorf("generating session ID: parsing counter: %w", err)
			}
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("generating session ID: reading counter: %w", err)
	}

	counter++
	id := fmt.Sprintf("C-%05d", counter)

	if err := os.WriteFile(counterFile, []byte(strconv.Itoa(counter)), 0o600); err != nil {
		return "", fmt.Errorf("generating session ID: writing counter: %w", err)
	}
	return id, nil
}

// lockCounter acquires an exclusive lock on the session counter file.
func (s *fileTranscriptStore) lockCounter() (unlock func() error, err error) {
	f, err := os.OpenFile(s.counterPath(), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening counter lock file: %w", err)
	}

	// syscall.Flock is Unix-specific. On Windows, this will compile but may not work.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring counter lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}

// AddSession stores a chat session and its turns. The session must have an
// ID already assigned (via GenerateID).
func (s *fileTranscriptStore) AddSession(session models.ChatSession, turns []models.ChatTurn) (string, error) {
	if session.ID == "" {
		return "", fmt.Errorf("adding session: ID must not be empty")
	}

	for _, existing := range s.index.Sessions {
		if existing.ID == session.ID {
			return "", fmt.Errorf("adding session: %s already exists", session.ID)
		}
	}

	if err := os.MkdirAll(s.transcriptsDir(), 0o755); err != nil {
		return "", fmt.Errorf("adding session: creating directory: %w", err)
	}

	record := struct {
		Session models.ChatSession `yaml:"session"`
		Turns   []models.ChatTurn  `yaml:"turns"`
	}{Session: session, Turns: turns}
	if err := s.saveYAML(s.sessionPath(session.ID), &record); err != nil {
		return "", fmt.Errorf("adding session: writing transcript: %w", err)
	}

	s.index.Sessions = append(s.index.Sessions, session)

	return session.ID, nil
}

// GetSession returns the metadata for a session by ID.
func (s *fileTranscriptStore) GetSession(id string) (*models.ChatSession, error) {
	for _, session := range s.index.Sessions {
		if session.ID == id {
			return &session, nil
		}
	}
	return nil, fmt.Errorf("session %s not found", id)
}

// GetSessionTurns loads turns from disk for the given session ID.
func (s *fileTranscriptStore) GetSessionTurns(id string) ([]models.ChatTurn, error) {
	found := false
	for _, session := range s.index.Sessions {
		if session.ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("session %s not found", id)
	}

	data, err := os.ReadFile(s.sessionPath(id))
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	var record struct {
		Session models.ChatSession `yaml:"session"`
		Turns   []models.ChatTurn  `yaml:"turns"`
	}
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}

	return record.Turns, nil
}

// GetRecentSessions returns the most recent sessions, ordered newest first,
// limited to the given count.
func (s *fileTranscriptStore) GetRecentSessions(limit int) ([]models.ChatSession, error) {
	if len(s.index.Sessions) == 0 {
		return nil, nil
	}

	sorted := make([]models.ChatSession, len(s.index.Sessions))
	copy(sorted, s.index.Sessions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	return sorted, nil
}

// Load reads the transcript index from disk. Missing files are treated as empty.
func (s *fileTranscriptStore) Load() error {
	if err := s.loadYAML(s.indexPath(), &s.index); err != nil {
		return fmt.Errorf("loading transcript index: %w", err)
	}
	if s.index.Version == "" {
		s.index.Version = "1.0"
	}
	return nil
}

// Save persists the transcript index to disk.
func (s *fileTranscriptStore) Save() error {
	if err := os.MkdirAll(s.transcriptsDir(), 0o755); err != nil {
		return fmt.Errorf("saving transcript store: creating directory: %w", err)
	}

	if err := s.saveYAML(s.indexPath(), &s.index); err != nil {
		return fmt.Errorf("saving transcript index: %w", err)
	}
	return nil
}

func (s *fileTranscriptStore) loadYAML(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Missing files are initialized to zero values.
		}
		return err
	}
	return yaml.Unmarshal(data, target)
}

func (s *fileTranscriptStore) saveYAML(path string, source interface{}) error {
	data, err := yaml.Marshal(source)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
