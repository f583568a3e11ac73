package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"collabboard-backend/internal/auth"
	"collabboard-backend/internal/model"
)

// BoardHandler 보드 핸들러
type BoardHandler struct {
	db *gorm.DB
}

// NewBoardHandler BoardHandler 생성
func NewBoardHandler(db *gorm.DB) *BoardHandler {
	return &BoardHandler{db: db}
}

// CreateBoardRequest 보드 생성 요청
type CreateBoardRequest struct {
	Name      string  `json:"name"`
	MemberIDs []int64 `json:"member_ids,omitempty"`
}

// BoardResponse 보드 응답
type BoardResponse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	OwnerID   int64                 `json:"owner_id"`
	CreatedAt string                `json:"created_at"`
	Owner     *UserResponse         `json:"owner,omitempty"`
	Members   []BoardMemberResponse `json:"members,omitempty"`
}

// BoardMemberResponse 보드 멤버 응답
type BoardMemberResponse struct {
	UserID   int64         `json:"user_id"`
	Role     string        `json:"role"`
	JoinedAt string        `json:"joined_at"`
	User     *UserResponse `json:"user,omitempty"`
}

// CreateBoard 보드 생성
func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	var req CreateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	// 이름 검증
	req.Name = sanitizeString(req.Name)
	if len(req.Name) < 2 || len(req.Name) > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "board name must be between 2 and 100 characters",
		})
	}

	// 트랜잭션으로 보드 + 멤버 생성
	board := model.Board{
		ID:      "b-" + uuid.NewString()[:8],
		Name:    req.Name,
		OwnerID: claims.UserID,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return err
		}

		// 소유자를 멤버로 추가
		owner := model.BoardMember{
			BoardID: board.ID,
			UserID:  claims.UserID,
			Role:    model.BoardRoleOwner.String(),
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}

		for _, memberID := range req.MemberIDs {
			if memberID == claims.UserID {
				continue
			}

			// 사용자 존재 확인
			var user model.User
			if err := tx.First(&user, memberID).Error; err != nil {
				continue // 존재하지 않는 사용자는 무시
			}

			member := model.BoardMember{
				BoardID: board.ID,
				UserID:  memberID,
				Role:    model.BoardRoleMember.String(),
			}
			if err := tx.Create(&member).Error; err != nil {
				continue
			}
		}

		return nil
	})

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create board",
		})
	}

	h.db.Preload("Owner").Preload("Members").Preload("Members.User").First(&board, "id = ?", board.ID)

	return c.Status(fiber.StatusCreated).JSON(toBoardResponse(&board))
}

// GetMyBoards 내 보드 목록
func (h *BoardHandler) GetMyBoards(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	var boards []model.Board
	err := h.db.
		Joins("JOIN board_members ON board_members.board_id = boards.id").
		Where("board_members.user_id = ?", claims.UserID).
		Preload("Owner").
		Order("boards.created_at DESC").
		Find(&boards).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list boards",
		})
	}

	responses := make([]BoardResponse, len(boards))
	for i := range boards {
		responses[i] = toBoardResponse(&boards[i])
	}

	return c.JSON(fiber.Map{"boards": responses})
}

// GetBoard 보드 상세 조회 (멤버 전용)
func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	boardID := c.Params("id")

	member, err := auth.IsBoardMember(h.db, boardID, claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}
	if !member {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "not a member of this board",
		})
	}

	var board model.Board
	err = h.db.Preload("Owner").Preload("Members").Preload("Members.User").
		First(&board, "id = ?", boardID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "board not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}

	return c.JSON(toBoardResponse(&board))
}

// DeleteBoard 보드 삭제 (소유자 전용)
func (h *BoardHandler) DeleteBoard(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	boardID := c.Params("id")

	owner, err := auth.IsBoardOwner(h.db, boardID, claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}
	if !owner {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "only the owner can delete a board",
		})
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("board_id = ?", boardID).Delete(&model.BoardMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&model.BoardStateRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Board{}, "id = ?", boardID).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete board",
		})
	}

	return c.JSON(fiber.Map{"message": "board deleted"})
}

// AddMemberRequest 멤버 추가 요청
type AddMemberRequest struct {
	UserID int64 `json:"user_id"`
}

// AddMember 보드 멤버 추가 (소유자 전용)
func (h *BoardHandler) AddMember(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	boardID := c.Params("id")

	owner, err := auth.IsBoardOwner(h.db, boardID, claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}
	if !owner {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "only the owner can add members",
		})
	}

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	// 사용자 존재 확인
	var user model.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	// 이미 멤버인지 확인
	already, err := auth.IsBoardMember(h.db, boardID, req.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}
	if already {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "already a member",
		})
	}

	member := model.BoardMember{
		BoardID: boardID,
		UserID:  req.UserID,
		Role:    model.BoardRoleMember.String(),
	}
	if err := h.db.Create(&member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to add member",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "member added"})
}

// RemoveMember 보드 멤버 제거 (소유자 또는 본인 탈퇴)
func (h *BoardHandler) RemoveMember(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	boardID := c.Params("id")

	targetID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	owner, err := auth.IsBoardOwner(h.db, boardID, claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}
	if !owner && targetID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "only the owner can remove other members",
		})
	}

	// 소유자는 제거 불가 (보드 삭제로만 정리)
	targetIsOwner, err := auth.IsBoardOwner(h.db, boardID, targetID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}
	if targetIsOwner {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "the owner cannot leave their own board",
		})
	}

	result := h.db.Where("board_id = ? AND user_id = ?", boardID, targetID).Delete(&model.BoardMember{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to remove member",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "member not found",
		})
	}

	return c.JSON(fiber.Map{"message": "member removed"})
}

func toBoardResponse(b *model.Board) BoardResponse {
	resp := BoardResponse{
		ID:        b.ID,
		Name:      b.Name,
		OwnerID:   b.OwnerID,
		CreatedAt: b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if b.Owner.ID != 0 {
		resp.Owner = &UserResponse{
			ID:         b.Owner.ID,
			Email:      b.Owner.Email,
			Name:       b.Owner.Name,
			ProfileImg: b.Owner.ProfileImg,
		}
	}
	for _, m := range b.Members {
		member := BoardMemberResponse{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if m.User.ID != 0 {
			member.User = &UserResponse{
				ID:         m.User.ID,
				Email:      m.User.Email,
				Name:       m.User.Name,
				ProfileImg: m.User.ProfileImg,
			}
		}
		resp.Members = append(resp.Members, member)
	}
	return resp
}

// sanitizeString 문자열 정제
func sanitizeString(s string) string {
	s = strings.TrimSpace(s)
	invalidChars := []string{"<", ">", "\"", "\\"}
	for _, char := range invalidChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}
