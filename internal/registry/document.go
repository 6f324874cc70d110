package registry

// Fallbacks used when the registry has nothing to say about a task type.
const (
	DefaultCategory  = "unknown"
	DefaultShape     = "rect"
	DefaultColor     = "#F5F5F5"
	DefaultDirection = "TD"
	DefaultScheme    = "default"
)

// categoryShapes maps a category to the shape used when a definition does not
// name one.
var categoryShapes = map[string]string{
	"input":      "circle",
	"output":     "rounded",
	"processing": "rect",
	"utility":    "rect",
}

// TaskDefinition describes how a task type is classified and drawn.
type TaskDefinition struct {
	Category    string `yaml:"category" validate:"omitempty,max=64"`
	Color       string `yaml:"color" validate:"omitempty,hexcolor"`
	Shape       string `yaml:"shape" validate:"omitempty,oneof=rect circle rounded subroutine hexagon"`
	Icon        string `yaml:"icon"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

// Styling holds diagram-wide defaults.
type Styling struct {
	DiagramDirection string         `yaml:"diagram_direction" validate:"omitempty,oneof=TD TB LR RL BT"`
	Extra            map[string]any `yaml:",inline"`
}

// Document is a decoded task_definitions document.
type Document struct {
	TaskDefinitions map[string]TaskDefinition    `yaml:"task_definitions" validate:"dive"`
	ColorSchemes    map[string]map[string]string `yaml:"color_schemes" validate:"dive,dive,hexcolor"`
	DefaultStyling  Styling                      `yaml:"default_styling"`
	// Source is the file the document was read from.
	Source string `yaml:"-"`
}

func emptyDocument() *Document {
	return &Document{
		TaskDefinitions: map[string]TaskDefinition{},
		ColorSchemes:    map[string]map[string]string{},
	}
}
