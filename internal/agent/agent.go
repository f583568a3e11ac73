// Package agent turns natural-language board commands into the same
// mutation commands clients send, via an OpenAI tool-calling loop. Every
// effect goes through the hub's serialized apply path, so agent edits are
// indistinguishable from a user's.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"collabboard-backend/internal/board"
	"collabboard-backend/internal/config"
	"collabboard-backend/internal/protocol"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("agent: no OpenAI API key configured")

const systemPrompt = `You are an assistant that helps users edit a shared whiteboard. The user will give you a natural language command. Use the available tools to change the board. Coordinates and sizes are in world units (e.g. 100, 200). When creating objects, use reasonable positions (e.g. 50-400 for x,y).

Templates and multi-item layouts:
- When the user asks for a "SWOT analysis", "four quadrants", "2x2 matrix", "quadrant template", or similar, use createQuadrantTemplate exactly once with four titles. For SWOT use: title1="Strengths", title2="Weaknesses", title3="Opportunities", title4="Threats" (in that order). Use a single createQuadrantTemplate call; do not create four separate frames.
- When the user asks for a "template" with multiple sections, quadrants, or a matrix, prefer createQuadrantTemplate if there are four sections; otherwise create the right number of frames or stickies with createFrame/createStickyNote, spaced in a clear grid (e.g. 20-30 units apart).

If the user asks to move, resize, update, or connect something, call getBoardState first to see current objects and their IDs, then call the appropriate mutation tool. When you receive the result of getBoardState, use the exact IDs from that data. For createConnector, fromId and toId can be: a sticky id, a text element id, a stroke id, or a point as "x,y" (e.g. "100,200"). Use centerView(x, y, zoom?) to pan and zoom the user's view to a spot after creating content so they can see it. Reply briefly to the user after you are done.`

// stateSummaryLimit bounds how much board JSON rides along in the first
// user message; getBoardState returns the full thing on demand.
const stateSummaryLimit = 4000

// Applier is the board surface the agent mutates through.
type Applier interface {
	Apply(boardID string, cmd *protocol.Command)
	Snapshot(boardID string) *board.State
}

// ViewCenter is a client-side pan/zoom hint; the server never acts on it.
type ViewCenter struct {
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Zoom *float64 `json:"zoom,omitempty"`
}

// Result is what the HTTP caller gets back.
type Result struct {
	Message    string      `json:"message"`
	Applied    int         `json:"applied"`
	ViewCenter *ViewCenter `json:"viewCenter,omitempty"`
}

// Agent runs natural-language commands against boards.
type Agent struct {
	client   *openai.Client
	applier  Applier
	model    string
	maxTurns int
	timeout  time.Duration
}

// New builds the agent. Returns a disabled agent when no key is set; Run
// then fails with ErrDisabled.
func New(cfg config.AgentConfig, applier Applier) *Agent {
	a := &Agent{
		applier:  applier,
		model:    cfg.Model,
		maxTurns: cfg.MaxTurns,
		timeout:  cfg.Timeout,
	}
	if cfg.OpenAIKey != "" {
		a.client = openai.NewClient(cfg.OpenAIKey)
	}
	return a
}

// Enabled reports whether an API key was configured.
func (a *Agent) Enabled() bool {
	return a.client != nil
}

// Run executes one natural-language command against a board. Mutations
// are applied as the model emits them, so a later getBoardState in the
// same run sees the agent's own edits. On timeout the partial edits stand
// and the error goes to the caller only.
func (a *Agent) Run(ctx context.Context, boardID, command string) (*Result, error) {
	if a.client == nil {
		return nil, ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	summary := "Board state not provided. Call getBoardState to see the board."
	if stateJSON := a.boardJSON(boardID); stateJSON != "" {
		if len(stateJSON) > stateSummaryLimit {
			stateJSON = stateJSON[:stateSummaryLimit]
		}
		summary = "Current board state summary (call getBoardState to get full IDs and details):\n" + stateJSON
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: summary + "\n\nUser command: " + command},
	}

	result := &Result{}
	var lastContent string

	for turn := 0; turn < a.maxTurns; turn++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       a.model,
			Temperature: 0.2,
			Messages:    messages,
			Tools:       boardTools,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			break
		}
		msg := resp.Choices[0].Message
		lastContent = msg.Content

		if len(msg.ToolCalls) == 0 {
			break
		}
		messages = append(messages, msg)

		for _, tc := range msg.ToolCalls {
			content := a.execute(boardID, tc, result)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: tc.ID,
			})
		}
	}

	result.Message = strings.TrimSpace(lastContent)
	if result.Message == "" {
		result.Message = "Done."
	}
	return result, nil
}

// execute runs one tool call and returns the tool message content.
func (a *Agent) execute(boardID string, tc openai.ToolCall, result *Result) string {
	name := tc.Function.Name

	if name == "getBoardState" {
		if stateJSON := a.boardJSON(boardID); stateJSON != "" {
			return stateJSON
		}
		return "{}"
	}

	var args toolArgs
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		log.Printf("[Agent] Bad arguments for %s: %v", name, err)
		return "Invalid arguments."
	}

	if name == "centerView" {
		result.ViewCenter = &ViewCenter{X: args.X, Y: args.Y, Zoom: args.Zoom}
		return "View will be centered by the client."
	}

	cmds := translate(name, args, a.applier.Snapshot(boardID))
	if len(cmds) == 0 {
		log.Printf("[Agent] Could not translate %s call on board %s", name, boardID)
		return "No matching object; call getBoardState for current IDs."
	}
	for _, cmd := range cmds {
		a.applier.Apply(boardID, cmd)
	}
	result.Applied += len(cmds)
	return "Executed."
}

func (a *Agent) boardJSON(boardID string) string {
	data, err := json.Marshal(a.applier.Snapshot(boardID))
	if err != nil {
		return ""
	}
	return string(data)
}
