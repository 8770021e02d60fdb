package dto

// CreateModelRequest carries the fields a developer submits when publishing
// a listing. All fields are required; DeveloperEmail is taken from the
// credential, never from the body.
type CreateModelRequest struct {
	ModelName   string `json:"modelName"`
	Category    string `json:"category"`
	Framework   string `json:"framework"`
	UseCase     string `json:"useCase"`
	Dataset     string `json:"dataset"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// UpdateModelRequest is a partial update; empty fields are left unchanged.
type UpdateModelRequest struct {
	ModelName   string `json:"modelName"`
	Category    string `json:"category"`
	Framework   string `json:"framework"`
	UseCase     string `json:"useCase"`
	Dataset     string `json:"dataset"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type DeleteModelResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}
