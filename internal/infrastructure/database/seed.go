package database

import (
	"log"

	"coinshop/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedProducts inserts the built-in package list into the product table,
// leaving rows an operator already edited untouched.
func SeedProducts(db *gorm.DB, products []model.CoinProduct) {
	if len(products) == 0 {
		return
	}

	err := db.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&products).Error
	if err != nil {
		log.Printf("failed to seed products: %v", err)
		return
	}

	log.Printf("product catalog seeded (%d packages)", len(products))
}
