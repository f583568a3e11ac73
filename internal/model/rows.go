package model

import (
	"time"
)

// User 사용자
type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	ProfileImg *string   `gorm:"type:text" json:"profile_img,omitempty"`
	Provider   *string   `gorm:"type:varchar(50)" json:"provider,omitempty"`
	ProviderID *string   `gorm:"type:varchar(255)" json:"provider_id,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Boards []BoardMember `gorm:"foreignKey:UserID" json:"boards,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Board 보드 (협업 단위)
type Board struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	OwnerID   int64     `gorm:"not null" json:"owner_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Owner   User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []BoardMember `gorm:"foreignKey:BoardID" json:"members,omitempty"`
}

func (Board) TableName() string {
	return "boards"
}

// BoardMember 보드 멤버십
type BoardMember struct {
	BoardID   string    `gorm:"type:varchar(64);primaryKey" json:"board_id"`
	UserID    int64     `gorm:"primaryKey" json:"user_id"`
	Role      string    `gorm:"type:varchar(20);default:'MEMBER'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Board Board `gorm:"foreignKey:BoardID" json:"board,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (BoardMember) TableName() string {
	return "board_members"
}

// BoardStateRecord is the durable form of one board: each collection
// serialized as a JSONB column plus the persisted sequence counter.
// One row per board, last write wins.
type BoardStateRecord struct {
	BoardID      string    `gorm:"type:varchar(64);primaryKey" json:"board_id"`
	Strokes      string    `gorm:"type:jsonb;not null;default:'[]'" json:"strokes"`
	Stickies     string    `gorm:"type:jsonb;not null;default:'[]'" json:"stickies"`
	TextElements string    `gorm:"type:jsonb;not null;default:'[]'" json:"text_elements"`
	Connectors   string    `gorm:"type:jsonb;not null;default:'[]'" json:"connectors"`
	Frames       string    `gorm:"type:jsonb;not null;default:'[]'" json:"frames"`
	NextSeq      int64     `gorm:"not null;default:0" json:"next_seq"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BoardStateRecord) TableName() string {
	return "board_states"
}

// BoardRole 멤버 역할
type BoardRole string

const (
	BoardRoleOwner  BoardRole = "OWNER"
	BoardRoleMember BoardRole = "MEMBER"
)

func (r BoardRole) String() string {
	return string(r)
}
