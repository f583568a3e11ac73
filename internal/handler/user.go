package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"collabboard-backend/internal/auth"
	"collabboard-backend/internal/model"
)

// UserHandler 유저 핸들러
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler UserHandler 생성
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// SearchUsersResponse 유저 검색 응답
type SearchUsersResponse struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
}

// SearchUsers 초대 후보 검색 (이름 또는 이메일). board 파라미터를 주면
// 해당 보드에 이미 속한 멤버를 결과에서 제외한다 — 멤버 추가 화면에서
// 바로 쓸 수 있는 목록이 나온다.
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "search query is required",
		})
	}

	// 최소 2글자 이상
	if len(query) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "search query must be at least 2 characters",
		})
	}

	// 검색어 정제 (XSS 방지)
	query = sanitizeString(query)
	searchPattern := "%" + query + "%"

	// 보드 스코프 검색은 그 보드의 멤버에게만 허용
	boardID := strings.TrimSpace(c.Query("board"))
	if boardID != "" {
		member, err := auth.IsBoardMember(h.db, boardID, claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to check board membership",
			})
		}
		if !member {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "not a member of this board",
			})
		}
	}

	// Count와 Find가 같은 조건을 공유하도록 빌더를 매번 새로 만든다
	search := func() *gorm.DB {
		q := h.db.Model(&model.User{}).
			Where("id != ?", claims.UserID).
			Where("name ILIKE ? OR email ILIKE ?", searchPattern, searchPattern)
		if boardID != "" {
			q = q.Where("id NOT IN (?)", h.db.Model(&model.BoardMember{}).
				Select("user_id").
				Where("board_id = ?", boardID))
		}
		return q
	}

	var total int64
	if err := search().Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to search users",
		})
	}

	var users []model.User
	if err := search().Limit(10).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to search users",
		})
	}

	userResponses := make([]UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = UserResponse{
			ID:         user.ID,
			Email:      user.Email,
			Name:       user.Name,
			ProfileImg: user.ProfileImg,
		}
	}

	return c.JSON(SearchUsersResponse{
		Users: userResponses,
		Total: total,
	})
}
