// Copyright 2026 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"sync"

	"github.com/wirednil/noctra-sub000/internal/util"
)

// Config bounds a Manager's pool of sessions.
type Config struct {
	MaxSessions int  `yaml:"maxSessions" validate:"required,gt=0"`
	AutoCleanup bool `yaml:"autoCleanup"`
}

// DefaultConfig allows up to 100 concurrent sessions, with AutoCleanup set.
// Manager does not read AutoCleanup: finished sessions stay in the pool
// until the caller runs CleanupFinishedSessions or RemoveSession.
func DefaultConfig() Config {
	return Config{MaxSessions: 100, AutoCleanup: true}
}

// Manager pools sessions for an embedding that serves more than one
// interactive session at a time. It is not part of the closed Statement/
// executor contract; an embedding may use it or drive Session directly.
type Manager struct {
	mu       sync.Mutex
	config   Config
	sessions map[string]*Session
}

func NewManager(config Config) *Manager {
	return &Manager{config: config, sessions: make(map[string]*Session)}
}

// CreateSession allocates a new Session, failing once the pool is full.
func (m *Manager) CreateSession() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.config.MaxSessions {
		return nil, util.NewInternal("session pool exhausted", nil)
	}
	s := New()
	m.sessions[s.ID()] = s
	return s, nil
}

func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// CleanupFinishedSessions drops every session in StateFinished and reports
// how many were removed.
func (m *Manager) CleanupFinishedSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.State() == StateFinished {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) ActiveSessionsCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) Config() Config { return m.config }
