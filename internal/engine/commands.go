package engine

import (
	"encoding/json"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "path"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Layer       string        `json:"layer,omitempty"`       // Owning layer of document shapes
	Role        string        `json:"role"`                  // Scene node type
	Path        []PathCommand `json:"path,omitempty"`        // Path data
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
}

// CompileDrawCommands generates a draw command buffer from a scene graph.
// Commands are in painter's order (back to front).
func CompileDrawCommands(sg *SceneGraph) []DrawCommand {
	if sg == nil || sg.Root == nil {
		return nil
	}

	commands := []DrawCommand{}
	compileNode(sg.Root, &commands)
	return commands
}

// compileNode recursively generates draw commands for a node and its children.
func compileNode(node *SceneNode, commands *[]DrawCommand) {
	if node == nil || !node.Visible {
		return
	}

	if len(node.Path) > 0 {
		cmd := DrawCommand{
			Op:          "path",
			Role:        node.Type,
			Path:        node.Path,
			Fill:        node.Fill,
			Stroke:      node.Stroke,
			StrokeWidth: node.StrokeWidth,
		}
		if node.Type == NodeShape {
			cmd.ObjectID = node.ID
			if node.Parent != nil {
				cmd.Layer = node.Parent.ID
			}
		}
		*commands = append(*commands, cmd)
	}

	for _, child := range node.Children {
		compileNode(child, commands)
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
