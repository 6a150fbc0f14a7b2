// Package filestate persists tail read offsets across restarts so the xray
// log tailers resume where they left off instead of replaying whole files.
package filestate

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

// TailOffsets maps a log file path to the byte offset already consumed.
type TailOffsets map[string]int64

type Manager interface {
	Load() (TailOffsets, error)
	Save(offsets TailOffsets) error
	StateFilePath() string
}

type fileStateManager struct {
	filePath string
	mu       sync.RWMutex
}

func NewManager(filePath string) Manager {
	return &fileStateManager{
		filePath: filePath,
	}
}

func (m *fileStateManager) Load() (TailOffsets, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("file", m.filePath).Msg("State file not found, starting fresh")
			return make(TailOffsets), nil
		}
		log.Error().Err(err).Str("file", m.filePath).Msg("Failed to read state file")
		return nil, err
	}

	if len(data) == 0 {
		log.Warn().Str("file", m.filePath).Msg("State file is empty, starting fresh")
		return make(TailOffsets), nil
	}
	var offsets TailOffsets
	if err := json.Unmarshal(data, &offsets); err != nil {
		log.Error().Err(err).Str("file", m.filePath).Msg("Failed to unmarshal state file")
		return nil, err
	}

	log.Debug().Str("file", m.filePath).Int("files_tracked", len(offsets)).Msg("Loaded tail offsets")
	return offsets, nil
}

func (m *fileStateManager) Save(offsets TailOffsets) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(offsets, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal tail offsets")
		return err
	}

	// Write-then-rename keeps the state file whole if we crash mid-save.
	tempFilePath := m.filePath + ".tmp"
	err = os.WriteFile(tempFilePath, data, 0644)
	if err != nil {
		log.Error().Err(err).Str("file", tempFilePath).Msg("Failed to write temporary state file")
		return err
	}

	err = os.Rename(tempFilePath, m.filePath)
	if err != nil {
		log.Error().Err(err).Str("from", tempFilePath).Str("to", m.filePath).Msg("Failed to rename state file")
		_ = os.Remove(tempFilePath)
		return err
	}
	log.Debug().Str("file", m.filePath).Int("files_tracked", len(offsets)).Msg("Saved tail offsets")
	return nil
}

func (m *fileStateManager) StateFilePath() string {
	return m.filePath
}
