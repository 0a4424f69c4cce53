package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Money columns mirror decimal(10,2).
const (
	MoneyPrecision = 10
	MoneyScale     = 2
)

// MaxMoney is the largest value a decimal(10,2) column holds.
var MaxMoney = decimal.RequireFromString("99999999.99")

type Campaign struct {
	ID            uint            `gorm:"primarykey"`
	Title         string          `gorm:"size:100;not null"`
	Description   string          `gorm:"type:text;not null"`
	GoalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	StartDate     datatypes.Date  `gorm:"not null"`
	EndDate       *datatypes.Date
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CreatorID     uint `gorm:"not null;index"`
	Creator       User `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// Ended reports whether the campaign's end date lies before day.
func (c *Campaign) Ended(day time.Time) bool {
	if c.EndDate == nil {
		return false
	}
	return time.Time(*c.EndDate).Before(TruncateDay(day))
}

// TruncateDay returns midnight UTC of t's calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AfterFind drops float noise from backends that store decimals as REAL.
func (c *Campaign) AfterFind(tx *gorm.DB) error {
	c.GoalAmount = c.GoalAmount.Round(MoneyScale)
	c.CurrentAmount = c.CurrentAmount.Round(MoneyScale)
	return nil
}
