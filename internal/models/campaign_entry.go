package models

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CampaignEntry is one contribution recorded against a campaign. CreatorID
// is nil for anonymous contributions and for contributors that were deleted.
type CampaignEntry struct {
	ID           uint            `gorm:"primarykey"`
	CreatedAt    time.Time       `gorm:"precision:3"`
	CampaignID   uint            `gorm:"not null;index"`
	Campaign     *Campaign       `gorm:"foreignKey:CampaignID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatorID    *uint           `gorm:"index"`
	Creator      *User           `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Amount       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	AmountBefore decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	AmountAfter  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Note         string          `gorm:"type:text"`
	IPAddress    string          `gorm:"type:varchar(50)"`
	DeviceInfo   string          `gorm:"type:varchar(255)"`
	Hash         string          `gorm:"type:varchar(64);default:''"` // HMAC SHA256
}

// GenerateHash signs the fields that define the contribution. The creator
// is left out since it is nulled when the contributing user is deleted.
func (e *CampaignEntry) GenerateHash(secret string) string {
	data := fmt.Sprintf("%d|%d|%s|%s|%s|%s",
		e.CampaignID, e.CreatedAt.UnixMilli(),
		e.Amount.StringFixed(MoneyScale), e.AmountBefore.StringFixed(MoneyScale), e.AmountAfter.StringFixed(MoneyScale),
		e.Note)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHash reports whether Hash matches the entry's current fields.
func (e *CampaignEntry) VerifyHash(secret string) bool {
	return hmac.Equal([]byte(e.Hash), []byte(e.GenerateHash(secret)))
}

func (e *CampaignEntry) AfterFind(tx *gorm.DB) error {
	e.Amount = e.Amount.Round(MoneyScale)
	e.AmountBefore = e.AmountBefore.Round(MoneyScale)
	e.AmountAfter = e.AmountAfter.Round(MoneyScale)
	return nil
}
