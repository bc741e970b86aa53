// Package protocol defines the JSON messages pushed on the report feed.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/cmenning/asu-calculator/internal/engine"
)

const Version = "1"

// Message types.
const (
	TypeReport = "REPORT"
	TypeError  = "ERROR"
)

// BaseMessage lets clients route messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// ReportMsg carries the results computed from one snapshot revision.
type ReportMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SnapshotModTime time.Time      `json:"snapshot_mtime"`
	GeneratedAt     time.Time      `json:"generated_at"`
	Results         engine.Results `json:"results"`
}

func NewReport(res engine.Results, modTime, now time.Time) ReportMsg {
	return ReportMsg{
		Type:            TypeReport,
		ProtocolVersion: Version,
		SnapshotModTime: modTime,
		GeneratedAt:     now,
		Results:         res,
	}
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg}
}
