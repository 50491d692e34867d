package models

import "time"

// AuditAction is the kind of change an audit entry records
type AuditAction string

const (
	AuditAddition AuditAction = "ADDITION"
	AuditChange   AuditAction = "CHANGE"
	AuditDeletion AuditAction = "DELETION"
)

// AuditEntry is a line in the administrative change log
type AuditEntry struct {
	ID         int64       `json:"id" db:"id"`
	Actor      string      `json:"actor" db:"actor"`
	ObjectType string      `json:"objectType" db:"object_type"`
	ObjectID   int64       `json:"objectId" db:"object_id"`
	ObjectRepr string      `json:"objectRepr" db:"object_repr"`
	Action     AuditAction `json:"action" db:"action"`
	Message    string      `json:"message" db:"message"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
}
