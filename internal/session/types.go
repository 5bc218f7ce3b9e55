// Package session implements session lifecycle, persistence, and quota
// enforcement across all users, per spec.md §4.4.
package session

import "time"

// Watch is one entry in a session's ordered watch-expression list
// (spec.md §4.7).
type Watch struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
	Expression  string `json:"expression"`
}

// Session is a server-side container holding one debugger driver's
// identity, one optional open dump, symbol search path additions, and
// watch state, owned by exactly one user (spec.md §3, §4.4).
type Session struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	CreatedAt     time.Time `json:"createdAt"`
	LastActivity  time.Time `json:"lastActivity"`
	CurrentDumpID string    `json:"currentDumpId,omitempty"`
	SymbolPaths   []string  `json:"symbolPaths,omitempty"`
	SymbolServers []string  `json:"symbolServers,omitempty"`
	Watches       []Watch   `json:"watches,omitempty"`
	NextWatchID   int       `json:"nextWatchId"`
	ScratchDir    string    `json:"scratchDir"`
}

// Summary is the list-view projection returned by List.
type Summary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	LastActivity  time.Time `json:"lastActivity"`
	CurrentDumpID string    `json:"currentDumpId,omitempty"`
}

func (s *Session) summary() Summary {
	return Summary{
		ID:            s.ID,
		CreatedAt:     s.CreatedAt,
		LastActivity:  s.LastActivity,
		CurrentDumpID: s.CurrentDumpID,
	}
}
