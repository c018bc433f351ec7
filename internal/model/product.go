package model

import (
	"time"
)

// CoinProduct is a purchasable coin package. The server-held catalog is the
// only source of truth for Price and Coins; values arriving in a request body
// are never trusted.
type CoinProduct struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(128);not null" json:"name"`
	Coins        int64     `gorm:"not null" json:"coins"`
	Bonus        int64     `gorm:"not null;default:0" json:"bonus"`
	Price        int64     `gorm:"not null" json:"price"` // KRW, smallest unit
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CoinProduct) TableName() string {
	return "coin_product"
}

// TotalCoins is the amount actually granted on purchase: base plus bonus.
func (p *CoinProduct) TotalCoins() int64 {
	return p.Coins + p.Bonus
}
