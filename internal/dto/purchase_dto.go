package dto

import "time"

type PurchaseRequest struct {
	ModelID string `json:"modelId"`
}

type PurchaseResponse struct {
	Message   string `json:"message"`
	ReceiptID string `json:"receiptId"`
	State     string `json:"state"`
}

type PurchaseStatusResponse struct {
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// PurchaseHistoryItem is a receipt enriched with display fields from the
// listing it refers to. Enrichment is best-effort: when the listing is gone
// the placeholders survive so the row still renders.
type PurchaseHistoryItem struct {
	ReceiptID      string    `json:"receiptId"`
	ModelID        string    `json:"modelId"`
	ModelName      string    `json:"modelName"`
	BuyerEmail     string    `json:"buyerEmail"`
	DeveloperEmail string    `json:"developerEmail"`
	PurchaseDate   time.Time `json:"purchaseDate"`
	Framework      string    `json:"framework"`
	UseCase        string    `json:"useCase"`
	ImageURL       string    `json:"imageUrl"`
}

type PurchaseHistoryResponse struct {
	BuyerEmail     string                `json:"buyerEmail"`
	TotalPurchases int                   `json:"totalPurchases"`
	Purchases      []PurchaseHistoryItem `json:"purchases"`
}
