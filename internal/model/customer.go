package model

import "strings"

type Customer struct {
	BaseModel
	FirstName string `gorm:"type:varchar(256);not null" json:"first_name" validate:"required,max=256"`
	LastName  string `gorm:"type:varchar(256)" json:"last_name" validate:"max=256"`
	Address   string `gorm:"type:text" json:"address"`
	Email     string `gorm:"type:varchar(256)" json:"email" validate:"omitempty,email"`
	Phone     string `gorm:"type:varchar(30)" json:"phone"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// SelectOption is the {id, text} pair used by the sales form customer picker.
type SelectOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (c *Customer) ToSelectOption() SelectOption {
	return SelectOption{ID: c.ID.String(), Text: c.FullName()}
}
