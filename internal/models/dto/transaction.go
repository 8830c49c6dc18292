package dto

import "github.com/hongminglow/loyalty-ledger/internal/models"

// TransactionRequest is the raw form payload; Amount carries currency for
// "add" and a point count for "redeem".
type TransactionRequest struct {
	Mobile string `json:"mobile"`
	Name   string `json:"name"`
	Mode   string `json:"mode"`
	Amount string `json:"amount"`
}

type TransactionResponse struct {
	Customer models.CustomerRecord `json:"customer"`
	Payload  string                `json:"payload"`
}
