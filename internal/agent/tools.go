package agent

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"collabboard-backend/internal/board"
	"collabboard-backend/internal/model"
	"collabboard-backend/internal/protocol"
)

// boardTools is the function surface exposed to the model. getBoardState
// and centerView are handled inside the loop; everything else translates
// to board commands.
var boardTools = []openai.Tool{
	tool("createStickyNote", "Create a sticky note on the board. Use for notes, labels, or reminders.",
		props{
			"text":  str("Text content of the sticky note"),
			"x":     num("X position in world coordinates"),
			"y":     num("Y position in world coordinates"),
			"color": str("Hex color e.g. #fef9c3 (default yellow)"),
		}, "text", "x", "y"),
	tool("createShape", "Create a rectangle or circle shape on the board.",
		props{
			"type":   enum("Shape type", "rect", "circle"),
			"x":      num(""),
			"y":      num(""),
			"width":  num("Width of the shape"),
			"height": num("Height of the shape"),
			"color":  str(""),
		}, "type", "x", "y", "width", "height"),
	tool("createFrame", "Create a frame (container/group) on the board with an optional title.",
		props{
			"title":  str("Frame title"),
			"x":      num(""),
			"y":      num(""),
			"width":  num(""),
			"height": num(""),
		}, "x", "y"),
	tool("createQuadrantTemplate", "Create a 2x2 quadrant template: four frames in a grid. Use for SWOT analysis (Strengths, Weaknesses, Opportunities, Threats), four quadrants, 2x2 matrix, or any four-section layout. Order: title1=top-left, title2=top-right, title3=bottom-left, title4=bottom-right.",
		props{
			"title1": str("Top-left quadrant title (e.g. Strengths for SWOT)"),
			"title2": str("Top-right quadrant title (e.g. Weaknesses for SWOT)"),
			"title3": str("Bottom-left quadrant title (e.g. Opportunities for SWOT)"),
			"title4": str("Bottom-right quadrant title (e.g. Threats for SWOT)"),
			"x":      num("X position of top-left of the grid (world coordinates)"),
			"y":      num("Y position of top-left of the grid (world coordinates)"),
			"width":  num("Width of each frame (default 280)"),
			"height": num("Height of each frame (default 200)"),
			"gap":    num("Gap between frames (default 16)"),
		}, "title1", "title2", "title3", "title4", "x", "y"),
	tool("createConnector", "Create an arrow/connector between two objects. fromId and toId can be sticky id, text element id, stroke id, or a point as \"x,y\".",
		props{
			"fromId": str("ID of source object or \"x,y\" for a point"),
			"toId":   str("ID of target object or \"x,y\" for a point"),
			"style":  str("Hex color for the arrow"),
		}, "fromId", "toId"),
	tool("moveObject", "Move an existing object (sticky, text, frame, or stroke) by id to new x,y.",
		props{
			"objectId": str("ID of the object to move"),
			"x":        num(""),
			"y":        num(""),
		}, "objectId", "x", "y"),
	tool("resizeObject", "Resize an object by id (sticky, text, frame, or shape stroke).",
		props{
			"objectId": str(""),
			"width":    num(""),
			"height":   num(""),
		}, "objectId", "width", "height"),
	tool("updateText", "Update the text content of a sticky note or text element.",
		props{
			"objectId": str(""),
			"newText":  str(""),
		}, "objectId", "newText"),
	tool("changeColor", "Change the color of a sticky, text element, stroke, or connector.",
		props{
			"objectId": str(""),
			"color":    str("Hex color e.g. #3b82f6"),
		}, "objectId", "color"),
	tool("getBoardState", "Get the current board state with full details: stickies (id, x, y, width, height, text, color), strokes (strokeId, shape, color, points), textElements (id, x, y, width, height, text, color), frames (id, x, y, width, height, title), connectors (id, from, to, color). Use this to see existing IDs, colors, and positions before moving, resizing, changing colors, or connecting.",
		props{}),
	tool("centerView", "Center the user's view on a point and optionally set zoom. Use after creating or moving something so the user sees it. Coordinates are in world units (same as the board).",
		props{
			"x":    num("World X to center the view on"),
			"y":    num("World Y to center the view on"),
			"zoom": num("Optional zoom level (e.g. 1 = 100%, 2 = 200%). Omit to keep current zoom."),
		}, "x", "y"),
}

type props map[string]jsonschema.Definition

func tool(name, description string, p props, required ...string) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: p,
				Required:   required,
			},
		},
	}
}

func str(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: description}
}

func num(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Number, Description: description}
}

func enum(description string, values ...string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: description, Enum: values}
}

// toolArgs is the union of every tool's argument object.
type toolArgs struct {
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Color    string   `json:"color"`
	Title    string   `json:"title"`
	Title1   string   `json:"title1"`
	Title2   string   `json:"title2"`
	Title3   string   `json:"title3"`
	Title4   string   `json:"title4"`
	Gap      *float64 `json:"gap"`
	FromID   string   `json:"fromId"`
	ToID     string   `json:"toId"`
	Style    string   `json:"style"`
	ObjectID string   `json:"objectId"`
	NewText  string   `json:"newText"`
	Zoom     *float64 `json:"zoom"`
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// translate maps one mutation tool call onto board commands. The snapshot
// is only consulted to classify object ids; the commands themselves go
// through the same serialized path as client input.
func translate(name string, args toolArgs, s *board.State) []*protocol.Command {
	switch name {
	case "createStickyNote":
		cmd := &protocol.Command{Type: protocol.CmdAddSticky, ID: newID("sticky"), X: f(args.X), Y: f(args.Y)}
		if args.Text != "" {
			cmd.Text = &args.Text
		}
		if args.Color != "" {
			cmd.Color = &args.Color
		}
		return one(cmd)

	case "createShape":
		shape := model.ShapeRect
		if args.Type == "circle" {
			shape = model.ShapeCircle
		}
		w, h := deref(args.Width, 100), deref(args.Height, 100)
		cmd := &protocol.Command{
			Type:     protocol.CmdAddStroke,
			StrokeID: newID("shape"),
			Shape:    shape,
			Points:   []model.Point{{X: args.X, Y: args.Y}, {X: args.X + w, Y: args.Y + h}},
		}
		if args.Color != "" {
			cmd.Color = &args.Color
		}
		return one(cmd)

	case "createFrame":
		cmd := &protocol.Command{Type: protocol.CmdAddFrame, ID: newID("frame"), X: f(args.X), Y: f(args.Y)}
		if args.Title != "" {
			cmd.Title = &args.Title
		}
		cmd.Width, cmd.Height = args.Width, args.Height
		return one(cmd)

	case "createQuadrantTemplate":
		w := deref(args.Width, model.DefaultFrameWidth)
		h := deref(args.Height, model.DefaultFrameHeight)
		gap := deref(args.Gap, 16)
		titles := []string{args.Title1, args.Title2, args.Title3, args.Title4}
		var cmds []*protocol.Command
		for i, title := range titles {
			col, row := float64(i%2), float64(i/2)
			t := title
			cmds = append(cmds, &protocol.Command{
				Type:  protocol.CmdAddFrame,
				ID:    newID("frame"),
				X:     f(args.X + col*(w+gap)),
				Y:     f(args.Y + row*(h+gap)),
				Width: &w, Height: &h,
				Title: &t,
			})
		}
		return cmds

	case "createConnector":
		from, ok := resolveEndpoint(args.FromID, s)
		if !ok {
			return nil
		}
		to, ok := resolveEndpoint(args.ToID, s)
		if !ok {
			return nil
		}
		cmd := &protocol.Command{Type: protocol.CmdAddConnector, ID: newID("conn"), From: &from, To: &to}
		if args.Style != "" {
			cmd.Color = &args.Style
		}
		return one(cmd)

	case "moveObject":
		return translateMove(args, s)

	case "resizeObject":
		return translateResize(args, s)

	case "updateText":
		switch classify(args.ObjectID, s) {
		case model.EndpointSticky:
			return one(&protocol.Command{Type: protocol.CmdUpdateSticky, ID: args.ObjectID, Text: &args.NewText})
		case model.EndpointText:
			return one(&protocol.Command{Type: protocol.CmdUpdateTextElement, ID: args.ObjectID, Text: &args.NewText})
		}
		return nil

	case "changeColor":
		if args.Color == "" {
			return nil
		}
		switch classify(args.ObjectID, s) {
		case model.EndpointSticky:
			return one(&protocol.Command{Type: protocol.CmdUpdateSticky, ID: args.ObjectID, Color: &args.Color})
		case model.EndpointText:
			return one(&protocol.Command{Type: protocol.CmdUpdateTextElement, ID: args.ObjectID, Color: &args.Color})
		case model.EndpointStroke:
			return one(&protocol.Command{Type: protocol.CmdSetStrokeColor, StrokeID: args.ObjectID, Color: &args.Color})
		}
		if findConnector(args.ObjectID, s) {
			return one(&protocol.Command{Type: protocol.CmdUpdateConnector, ID: args.ObjectID, Color: &args.Color})
		}
		return nil
	}
	return nil
}

func translateMove(args toolArgs, s *board.State) []*protocol.Command {
	switch classify(args.ObjectID, s) {
	case model.EndpointSticky:
		return one(&protocol.Command{Type: protocol.CmdUpdateStickyPosition, ID: args.ObjectID, X: f(args.X), Y: f(args.Y)})
	case model.EndpointText:
		return one(&protocol.Command{Type: protocol.CmdUpdateTextPosition, ID: args.ObjectID, X: f(args.X), Y: f(args.Y)})
	case model.EndpointStroke:
		// Strokes move by delta, so translate the requested absolute
		// position against the stroke's current top-left corner.
		for _, st := range s.Strokes {
			if st.StrokeID == args.ObjectID {
				minX, minY := strokeOrigin(st)
				return one(&protocol.Command{
					Type:     protocol.CmdMoveStroke,
					StrokeID: args.ObjectID,
					DX:       args.X - minX,
					DY:       args.Y - minY,
				})
			}
		}
	}
	for _, fr := range s.Frames {
		if fr.ID == args.ObjectID {
			return one(&protocol.Command{Type: protocol.CmdUpdateFrame, ID: args.ObjectID, X: f(args.X), Y: f(args.Y)})
		}
	}
	return nil
}

func translateResize(args toolArgs, s *board.State) []*protocol.Command {
	if args.Width == nil || args.Height == nil {
		return nil
	}
	switch classify(args.ObjectID, s) {
	case model.EndpointSticky:
		return one(&protocol.Command{Type: protocol.CmdUpdateSticky, ID: args.ObjectID, Width: args.Width, Height: args.Height})
	case model.EndpointText:
		return one(&protocol.Command{Type: protocol.CmdUpdateTextElement, ID: args.ObjectID, Width: args.Width, Height: args.Height})
	case model.EndpointStroke:
		// Only shape strokes resize cleanly: rewrite the two-corner box.
		for _, st := range s.Strokes {
			if st.StrokeID == args.ObjectID && st.Shape != model.ShapeNone {
				minX, minY := strokeOrigin(st)
				return one(&protocol.Command{
					Type:     protocol.CmdUpdateStrokePoints,
					StrokeID: args.ObjectID,
					Points:   []model.Point{{X: minX, Y: minY}, {X: minX + *args.Width, Y: minY + *args.Height}},
				})
			}
		}
	}
	for _, fr := range s.Frames {
		if fr.ID == args.ObjectID {
			return one(&protocol.Command{Type: protocol.CmdUpdateFrame, ID: args.ObjectID, Width: args.Width, Height: args.Height})
		}
	}
	return nil
}

// classify reports what kind of entity an id names, in sticky/text/stroke
// priority order. EndpointKind doubles as the classification result so
// connector endpoints fall straight out of it.
func classify(id string, s *board.State) model.EndpointKind {
	for _, st := range s.Stickies {
		if st.ID == id {
			return model.EndpointSticky
		}
	}
	for _, t := range s.TextElements {
		if t.ID == id {
			return model.EndpointText
		}
	}
	for _, st := range s.Strokes {
		if st.StrokeID == id {
			return model.EndpointStroke
		}
	}
	return ""
}

func findConnector(id string, s *board.State) bool {
	for _, c := range s.Connectors {
		if c.ID == id {
			return true
		}
	}
	return false
}

// resolveEndpoint parses "x,y" as a fixed point, otherwise classifies the
// id against the snapshot.
func resolveEndpoint(ref string, s *board.State) (model.EndpointRef, bool) {
	if x, y, ok := parsePoint(ref); ok {
		return model.PointRef(x, y), true
	}
	switch classify(ref, s) {
	case model.EndpointSticky:
		return model.StickyRef(ref), true
	case model.EndpointText:
		return model.TextRef(ref), true
	case model.EndpointStroke:
		return model.StrokeRef(ref), true
	}
	return model.EndpointRef{}, false
}

func parsePoint(ref string) (x, y float64, ok bool) {
	parts := strings.Split(ref, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

func strokeOrigin(st model.Stroke) (minX, minY float64) {
	if len(st.Points) == 0 {
		return 0, 0
	}
	minX, minY = st.Points[0].X, st.Points[0].Y
	for _, p := range st.Points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
	}
	return minX, minY
}

func one(cmd *protocol.Command) []*protocol.Command {
	return []*protocol.Command{cmd}
}

func f(v float64) *float64 {
	return &v
}

func deref(p *float64, fallback float64) float64 {
	if p != nil {
		return *p
	}
	return fallback
}
