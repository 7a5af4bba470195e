package company

import "time"

type Address struct {
	ID           int64     `gorm:"primaryKey"`
	Street       string    `gorm:"column:street;size:150;not null"`
	Number       int       `gorm:"column:number;not null"`
	Complement   *string   `gorm:"column:complement;size:150"`
	Neighborhood string    `gorm:"column:neighborhood;size:100;not null"`
	City         string    `gorm:"column:city;size:100;not null"`
	State        string    `gorm:"column:state;size:50;not null"`
	PostalCode   string    `gorm:"column:postal_code;size:8;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Address) TableName() string {
	return "addresses"
}

type Company struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;size:100;not null"`
	AddressID int64     `gorm:"column:address_id;not null"`
	Address   *Address  `gorm:"foreignKey:AddressID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Company) TableName() string {
	return "companies"
}
