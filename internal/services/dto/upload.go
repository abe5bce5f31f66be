package dto

type UploadResponse struct {
	ID       string `json:"id" example:"abc123"`
	URL      string `json:"url" example:"https://cdn.example.com/meetspace/avatars/42/abc.jpg"`
	Purpose  string `json:"purpose" example:"avatar"`
	MimeType string `json:"mimeType" example:"image/jpeg"`
	Size     int64  `json:"size" example:"204800"`
}
