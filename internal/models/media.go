package models

// Media - загруженный файл в объектном хранилище.
type Media struct {
	BaseModel
	CustomerID *string `gorm:"type:uuid;index" json:"customerId,omitempty"`
	Key        string  `gorm:"not null" json:"key"`
	URL        string  `gorm:"not null" json:"url"`
	MimeType   string  `json:"mimeType"`
	Size       int64   `json:"size"`
	Purpose    string  `gorm:"default:'avatar'" json:"purpose"`
}

// TableName указывает GORM имя таблицы
func (Media) TableName() string {
	return "media"
}
