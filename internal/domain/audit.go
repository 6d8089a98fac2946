package domain

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditActionClaim   AuditAction = "CLAIM"
	AuditActionRelease AuditAction = "RELEASE"
	AuditActionExpire  AuditAction = "EXPIRE"
)

// AuditEntry is an append-only record of a claim transition.
type AuditEntry struct {
	ActorID    string
	Action     AuditAction
	Entity     string
	EntityID   string
	BeforeJSON json.RawMessage
	AfterJSON  json.RawMessage
	CreatedAt  time.Time
}
