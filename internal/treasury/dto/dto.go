package dto

type PayRequest struct {
	ToUserID    string `json:"toUserId"`
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference,omitempty"` // ex: "settle:{betId}" | "withdraw"
}

type PayResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"` // "COMPLETED"
}
