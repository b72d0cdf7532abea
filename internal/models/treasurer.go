package models

import "time"

type Treasurer struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	StudentID    string    `json:"student_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string     `json:"token"`
	Treasurer *Treasurer `json:"treasurer"`
}

type UpdateProfileRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	StudentID string `json:"student_id" validate:"max=64"`
}
