package dto

import "github.com/hongminglow/loyalty-ledger/internal/models"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string           `json:"token"`
	User  models.StaffUser `json:"user"`
}
