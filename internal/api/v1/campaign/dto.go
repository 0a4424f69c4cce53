package campaign

import (
	"crowdx-backend/internal/models"
	"crowdx-backend/internal/services"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// CreateCampaignRequest has no current_amount: every campaign starts at zero.
type CreateCampaignRequest struct {
	Title       string           `json:"title" binding:"required,max=100"`
	Description string           `json:"description" binding:"required"`
	GoalAmount  *decimal.Decimal `json:"goal_amount" binding:"required"`
	EndDate     string           `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateCampaignRequest is a partial update. An empty end_date clears it.
type UpdateCampaignRequest struct {
	Title       *string          `json:"title" binding:"omitempty,max=100"`
	Description *string          `json:"description"`
	GoalAmount  *decimal.Decimal `json:"goal_amount"`
	EndDate     *string          `json:"end_date"`
}

type ContributeRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
	Note   string           `json:"note" binding:"max=500"`
}

type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type CampaignResponse struct {
	ID            uint        `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	GoalAmount    string      `json:"goal_amount"`
	CurrentAmount string      `json:"current_amount"`
	StartDate     string      `json:"start_date"`
	EndDate       *string     `json:"end_date"`
	IsEnded       bool        `json:"is_ended"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Creator       UserSummary `json:"creator"`
}

type CampaignListResponse struct {
	Campaigns []CampaignResponse `json:"campaigns"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}

type EntryResponse struct {
	ID           uint         `json:"id"`
	CampaignID   uint         `json:"campaign_id"`
	Creator      *UserSummary `json:"creator"`
	Amount       string       `json:"amount"`
	AmountBefore string       `json:"amount_before"`
	AmountAfter  string       `json:"amount_after"`
	Note         string       `json:"note"`
	CreatedAt    time.Time    `json:"created_at"`
}

type EntryListResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
}

type ContributionResponse struct {
	Entry    EntryResponse    `json:"entry"`
	Campaign CampaignProgress `json:"campaign"`
}

type CampaignProgress struct {
	ID            uint   `json:"id"`
	GoalAmount    string `json:"goal_amount"`
	CurrentAmount string `json:"current_amount"`
}

type ReconciliationResponse struct {
	CampaignID    uint   `json:"campaign_id"`
	CurrentAmount string `json:"current_amount"`
	EntriesTotal  string `json:"entries_total"`
	EntryCount    int64  `json:"entry_count"`
	Consistent    bool   `json:"consistent"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(models.MoneyScale)
}

func newCampaignResponse(c *models.Campaign, now time.Time) CampaignResponse {
	res := CampaignResponse{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		GoalAmount:    money(c.GoalAmount),
		CurrentAmount: money(c.CurrentAmount),
		StartDate:     time.Time(c.StartDate).Format(dateLayout),
		IsEnded:       c.Ended(now),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Creator:       UserSummary{ID: c.CreatorID, Username: c.Creator.Username},
	}
	if c.EndDate != nil {
		end := time.Time(*c.EndDate).Format(dateLayout)
		res.EndDate = &end
	}
	return res
}

func newEntryResponse(e *models.CampaignEntry) EntryResponse {
	res := EntryResponse{
		ID:           e.ID,
		CampaignID:   e.CampaignID,
		Amount:       money(e.Amount),
		AmountBefore: money(e.AmountBefore),
		AmountAfter:  money(e.AmountAfter),
		Note:         e.Note,
		CreatedAt:    e.CreatedAt,
	}
	if e.CreatorID != nil {
		res.Creator = &UserSummary{ID: *e.CreatorID}
		if e.Creator != nil {
			res.Creator.Username = e.Creator.Username
		}
	}
	return res
}

func newReconciliationResponse(r *services.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		CampaignID:    r.CampaignID,
		CurrentAmount: money(r.CurrentAmount),
		EntriesTotal:  money(r.EntriesTotal),
		EntryCount:    r.EntryCount,
		Consistent:    r.Consistent,
	}
}
