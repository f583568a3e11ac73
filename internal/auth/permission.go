package auth

import (
	"errors"

	"gorm.io/gorm"

	"collabboard-backend/internal/model"
)

// BoardRole 보드 멤버십 조회. 멤버가 아니면 ("", nil)
func BoardRole(db *gorm.DB, boardID string, userID int64) (string, error) {
	var member model.BoardMember
	err := db.Where("board_id = ? AND user_id = ?", boardID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// IsBoardMember 보드 멤버 여부 확인
func IsBoardMember(db *gorm.DB, boardID string, userID int64) (bool, error) {
	role, err := BoardRole(db, boardID, userID)
	return role != "", err
}

// IsBoardOwner 보드 소유자 여부 확인
func IsBoardOwner(db *gorm.DB, boardID string, userID int64) (bool, error) {
	role, err := BoardRole(db, boardID, userID)
	return role == model.BoardRoleOwner.String(), err
}
