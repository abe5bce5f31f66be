package models

// Customer - платящий клиент приложения (не путать с пользователем Flat).
type Customer struct {
	BaseModel
	Email         string  `gorm:"uniqueIndex;not null" json:"email"`
	Name          string  `json:"name"`
	Organization  string  `json:"organization"`
	SecretKey     string  `gorm:"not null" json:"-"`
	FlatUserUUID  string  `gorm:"index" json:"flatUserUUID,omitempty"`
	AvatarURL     string  `json:"avatarUrl,omitempty"`
	AvatarMediaID *string `gorm:"type:uuid" json:"avatarMediaId,omitempty"`
}
