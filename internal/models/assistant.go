package models

// ChatTurn is one message of an assistant conversation. The client keeps the
// history and sends it back with every question.
type ChatTurn struct {
	Role string `json:"role" validate:"required,oneof=user model"`
	Text string `json:"text" validate:"required,max=8000"`
}

type AssistantRequest struct {
	Mode    string     `json:"mode" validate:"omitempty,oneof=fast thinking search"`
	Message string     `json:"message" validate:"required,max=4000"`
	History []ChatTurn `json:"history" validate:"max=50,dive"`
}
