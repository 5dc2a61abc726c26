package model

import (
	"encoding/json"
	"time"
)

// QuestionRecord is the persisted row behind Question.
type QuestionRecord struct {
	UUIDBase
	GroupID          string          `gorm:"index;type:varchar(64);not null" json:"groupId"`
	ItemType         string          `gorm:"size:20;not null;default:'QUESTION'" json:"type"`
	Stem             string          `gorm:"type:text" json:"questionStem"`
	Explanation      string          `gorm:"type:text" json:"explanation"`
	QuestionType     string          `gorm:"size:50" json:"questionType"`
	Options          json.RawMessage `gorm:"type:json" json:"options"`
	CorrectAnswerIDs json.RawMessage `gorm:"type:json" json:"correctAnswerIds"`
	ImageURL         string          `gorm:"type:text" json:"imageUrl"`
	Tags             json.RawMessage `gorm:"type:json" json:"tags"`
	Upvotes          int             `gorm:"default:0" json:"upvotes"`
	Downvotes        int             `gorm:"default:0" json:"downvotes"`
}

func (QuestionRecord) TableName() string {
	return "questions"
}

// ResultRecord is one entry of a user's canonical result history. Payload
// carries the frozen session as JSON.
type ResultRecord struct {
	ID           string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID       string          `gorm:"index;type:varchar(64);not null" json:"userId"`
	GroupID      string          `gorm:"index;type:varchar(64)" json:"groupId"`
	Offline      bool            `gorm:"index;default:false" json:"offline"`
	StartedAtMs  int64           `gorm:"index" json:"startedAtMs"`
	EndedAt      *time.Time      `json:"endedAt"`
	Score        float64         `json:"score"`
	CorrectCount int             `json:"correctCount"`
	TotalCount   int             `json:"totalCount"`
	Payload      json.RawMessage `gorm:"type:json" json:"payload"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (ResultRecord) TableName() string {
	return "session_results"
}

type PendingSyncRecord struct {
	ID          string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID      string          `gorm:"index;type:varchar(64);not null" json:"userId"`
	StartedAtMs int64           `json:"startedAtMs"`
	Payload     json.RawMessage `gorm:"type:json" json:"payload"`
	QueuedAt    time.Time       `gorm:"index" json:"queuedAt"`
}

func (PendingSyncRecord) TableName() string {
	return "pending_sync_results"
}

type BundleRecord struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string          `gorm:"index;type:varchar(64);not null" json:"userId"`
	GroupID   string          `gorm:"type:varchar(64)" json:"groupId"`
	GroupName string          `gorm:"size:255" json:"groupName"`
	Config    json.RawMessage `gorm:"type:json" json:"config"`
	Questions []byte          `gorm:"type:longblob" json:"-"`
	CreatedAt time.Time       `gorm:"index" json:"createdAt"`
}

func (BundleRecord) TableName() string {
	return "offline_bundles"
}
