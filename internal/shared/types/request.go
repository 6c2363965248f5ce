package types

// RenameRequest represents a display-name change
type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

// OpenRequest represents an open command
type OpenRequest struct {
	Announce bool `json:"announce"`
}

// WSMessage represents an inbound WebSocket message from the browser
type WSMessage struct {
	Type   string                 `json:"type"`
	ID     string                 `json:"id,omitempty"`
	Kind   SubjectKind            `json:"kind,omitempty"`
	X      int                    `json:"x,omitempty"`
	Y      int                    `json:"y,omitempty"`
	Button int                    `json:"button,omitempty"`
	Event  string                 `json:"event,omitempty"`
	Key    string                 `json:"key,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// InputEvent is a user-input event dispatched to a presentation surface
type InputEvent struct {
	Type   string                 `json:"type"`
	Target string                 `json:"target"`
	X      int                    `json:"x,omitempty"`
	Y      int                    `json:"y,omitempty"`
	Key    string                 `json:"key,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}
