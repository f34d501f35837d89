package models

import "time"

type Person struct {
	PersonID  int64     `gorm:"column:person_id;primaryKey;autoIncrement"`
	Name      string    `gorm:"size:255;not null"`
	Phone     string    `gorm:"size:32;not null;default:''"`
	Addresses []Address `gorm:"foreignKey:PersonID;references:PersonID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Person) TableName() string {
	return "person"
}

type Address struct {
	AddressID int64  `gorm:"column:address_id;primaryKey;autoIncrement"`
	PersonID  int64  `gorm:"column:person_id;index;not null"`
	Street    string `gorm:"size:255;not null"`
	Number    string `gorm:"size:20;not null;default:''"`
	District  string `gorm:"size:120;not null;default:''"`
	City      string `gorm:"size:120;not null;default:''"`
	State     string `gorm:"size:120;not null;default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Address) TableName() string {
	return "address"
}
