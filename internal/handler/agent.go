package handler

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"collabboard-backend/internal/agent"
	"collabboard-backend/internal/auth"
)

// AgentHandler AI 커맨드 핸들러
type AgentHandler struct {
	db    *gorm.DB // nil in ephemeral mode
	agent *agent.Agent
}

// NewAgentHandler AgentHandler 생성
func NewAgentHandler(db *gorm.DB, a *agent.Agent) *AgentHandler {
	return &AgentHandler{db: db, agent: a}
}

// AgentCommandRequest 자연어 커맨드 요청
type AgentCommandRequest struct {
	Command string `json:"command"`
}

// RunCommand 보드에 자연어 커맨드 실행
func (h *AgentHandler) RunCommand(c *fiber.Ctx) error {
	if !h.agent.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "AI agent is not configured",
		})
	}

	claims := c.Locals("claims").(*auth.Claims)
	boardID := c.Params("id")

	if h.db != nil {
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
	} else {
		boardID = EphemeralBoardID
	}

	var req AgentCommandRequest
	if err := c.BodyParser(&req); err != nil || req.Command == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "command is required",
		})
	}

	result, err := h.agent.Run(c.Context(), boardID, req.Command)
	if err != nil {
		log.Printf("[Agent] Command on board %s failed: %v", boardID, err)
		if errors.Is(err, context.DeadlineExceeded) {
			// Applied mutations stand; only the caller learns about the cutoff.
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"error": "agent timed out",
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "agent request failed",
		})
	}

	return c.JSON(result)
}
