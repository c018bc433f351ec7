package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalCoins(t *testing.T) {
	p := &CoinProduct{Coins: 50, Bonus: 5}
	assert.Equal(t, int64(55), p.TotalCoins())
}

func TestTotalCoins_NoBonus(t *testing.T) {
	p := &CoinProduct{Coins: 10}
	assert.Equal(t, int64(10), p.TotalCoins())
}
