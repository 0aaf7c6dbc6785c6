package model

type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(256);not null" json:"name" validate:"required,max=256"`
	Description string `gorm:"type:text" json:"description" validate:"max=256"`
	Status      Status `gorm:"type:varchar(100);not null;default:ACTIVE" json:"status" validate:"status"`

	Products []Product `gorm:"constraint:OnDelete:CASCADE;" json:"products,omitempty" validate:"-"`
}

func (Category) TableName() string {
	return "categories"
}
