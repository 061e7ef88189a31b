package model

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateGalleryRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

type CreateGalleryInput struct {
	OwnerID     string
	Title       string
	Category    string
	Filename    string
	ContentType string
	Content     []byte
}
