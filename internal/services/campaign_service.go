package services

import (
	"context"
	"crowdx-backend/internal/apperr"
	"crowdx-backend/internal/models"
	"crowdx-backend/internal/realtime"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxTitleLength = 100
	defaultLimit   = 20
	maxLimit       = 100

	// MaxPage bounds page numbers so the row offset cannot overflow.
	MaxPage = 1_000_000
)

// ProgressPublisher receives an event after every committed contribution
// and is told when a campaign is deleted.
type ProgressPublisher interface {
	Publish(ev realtime.ProgressEvent)
	CloseCampaign(campaignID uint)
}

// CampaignService owns campaigns and their entries.
type CampaignService struct {
	db        *gorm.DB
	log       *zap.Logger
	secret    string
	publisher ProgressPublisher

	now func() time.Time
}

// NewCampaignService builds the service. secret signs entry hashes;
// publisher may be nil.
func NewCampaignService(db *gorm.DB, log *zap.Logger, secret string, publisher ProgressPublisher) *CampaignService {
	return &CampaignService{
		db:        db,
		log:       log,
		secret:    secret,
		publisher: publisher,
		now:       time.Now,
	}
}

type CreateCampaignInput struct {
	Title       string
	Description string
	GoalAmount  decimal.Decimal
	EndDate     *time.Time
}

// UpdateCampaignInput lists the mutable fields. ClearEndDate removes the
// end date; it wins over EndDate.
type UpdateCampaignInput struct {
	Title        *string
	Description  *string
	GoalAmount   *decimal.Decimal
	EndDate      *time.Time
	ClearEndDate bool
}

type CampaignFilter struct {
	CreatorID  *uint
	Search     string
	ActiveOnly bool
	Page       int
	Limit      int
}

type ContributionInput struct {
	CreatorID  *uint
	Amount     decimal.Decimal
	Note       string
	IPAddress  string
	DeviceInfo string
}

// Reconciliation compares a campaign's running total with its entries.
type Reconciliation struct {
	CampaignID    uint
	CurrentAmount decimal.Decimal
	EntriesTotal  decimal.Decimal
	EntryCount    int64
	Consistent    bool
}

func (s *CampaignService) Create(ctx context.Context, creatorID uint, in CreateCampaignInput) (*models.Campaign, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, apperr.Validation("description is required")
	}
	if err := validateMoney("goal_amount", in.GoalAmount); err != nil {
		return nil, err
	}

	today := models.TruncateDay(s.now())
	campaign := &models.Campaign{
		Title:         title,
		Description:   description,
		GoalAmount:    in.GoalAmount.Round(models.MoneyScale),
		CurrentAmount: decimal.Zero,
		StartDate:     datatypes.Date(today),
		CreatorID:     creatorID,
	}
	if in.EndDate != nil {
		end := models.TruncateDay(*in.EndDate)
		if end.Before(today) {
			return nil, apperr.Validation("end_date must not be before start_date")
		}
		d := datatypes.Date(end)
		campaign.EndDate = &d
	}

	if err := s.db.WithContext(ctx).Omit("Creator").Create(campaign).Error; err != nil {
		return nil, err
	}

	s.log.Info("campaign created",
		zap.Uint("campaign_id", campaign.ID),
		zap.Uint("creator_id", creatorID),
		zap.String("goal_amount", campaign.GoalAmount.StringFixed(models.MoneyScale)))

	return s.Get(ctx, campaign.ID)
}

func (s *CampaignService) Get(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.WithContext(ctx).Preload("Creator").First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("campaign")
		}
		return nil, err
	}
	return &campaign, nil
}

// List returns one page of campaigns, newest first, and the total count.
func (s *CampaignService) List(ctx context.Context, filter CampaignFilter) ([]models.Campaign, int64, error) {
	page, limit, err := normalizePage(filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Campaign{})
	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if filter.ActiveOnly {
		query = query.Where("(end_date IS NULL OR end_date >= ?)", datatypes.Date(models.TruncateDay(s.now())))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var campaigns []models.Campaign
	offset := (page - 1) * limit
	err = query.Preload("Creator").Order("created_at desc, id desc").Limit(limit).Offset(offset).Find(&campaigns).Error
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// Update applies in to the campaign if callerID created it. The running
// total, start date and creator cannot be changed here.
func (s *CampaignService) Update(ctx context.Context, id, callerID uint, in UpdateCampaignInput) (*models.Campaign, error) {
	updates := make(map[string]interface{})
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return nil, apperr.Validation("description must not be empty")
		}
		updates["description"] = description
	}
	if in.GoalAmount != nil {
		if err := validateMoney("goal_amount", *in.GoalAmount); err != nil {
			return nil, err
		}
		updates["goal_amount"] = in.GoalAmount.Round(models.MoneyScale)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		campaign, err := s.ownedCampaign(tx, id, callerID)
		if err != nil {
			return err
		}

		switch {
		case in.ClearEndDate:
			updates["end_date"] = nil
		case in.EndDate != nil:
			end := models.TruncateDay(*in.EndDate)
			if end.Before(time.Time(campaign.StartDate)) {
				return apperr.Validation("end_date must not be before start_date")
			}
			updates["end_date"] = datatypes.Date(end)
		}
		if len(updates) == 0 {
			return apperr.Validation("no fields to update")
		}
		updates["updated_at"] = s.now()

		return tx.Model(&models.Campaign{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("campaign updated", zap.Uint("campaign_id", id), zap.Uint("caller_id", callerID))
	return s.Get(ctx, id)
}

// Delete removes the campaign and all of its entries if callerID created it.
func (s *CampaignService) Delete(ctx context.Context, id, callerID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedCampaign(tx, id, callerID); err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&models.CampaignEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Campaign{}, id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("campaign deleted", zap.Uint("campaign_id", id), zap.Uint("caller_id", callerID))
	if s.publisher != nil {
		s.publisher.CloseCampaign(id)
	}
	return nil
}

// Contribute records an entry and raises the campaign total by its amount
// in one transaction. The total is incremented by a single UPDATE so
// concurrent contributions cannot overwrite each other.
func (s *CampaignService) Contribute(ctx context.Context, campaignID uint, in ContributionInput) (*models.CampaignEntry, *models.Campaign, error) {
	if err := validateMoney("amount", in.Amount); err != nil {
		return nil, nil, err
	}
	amount := in.Amount.Round(models.MoneyScale)
	now := s.now()

	var entry models.CampaignEntry
	var campaign models.Campaign
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "end_date").First(&campaign, campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("campaign")
			}
			return err
		}
		if campaign.Ended(now) {
			return apperr.Validation("campaign has ended")
		}

		// The row was found above, so no match here means the total would
		// overflow decimal(10,2).
		result := tx.Model(&models.Campaign{}).
			Where("id = ? AND current_amount <= ?", campaignID, models.MaxMoney.Sub(amount)).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("ROUND(current_amount + ?, 2)", amount),
				"updated_at":     now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.Validation("contribution would exceed the maximum campaign total")
		}

		if err := tx.First(&campaign, campaignID).Error; err != nil {
			return err
		}

		entry = models.CampaignEntry{
			CreatedAt:    now.Truncate(time.Millisecond),
			CampaignID:   campaignID,
			CreatorID:    in.CreatorID,
			Amount:       amount,
			AmountBefore: campaign.CurrentAmount.Sub(amount),
			AmountAfter:  campaign.CurrentAmount,
			Note:         strings.TrimSpace(in.Note),
			IPAddress:    in.IPAddress,
			DeviceInfo:   truncate(in.DeviceInfo, 255),
		}
		entry.Hash = entry.GenerateHash(s.secret)
		return tx.Omit("Campaign", "Creator").Create(&entry).Error
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("contribution recorded",
		zap.Uint("campaign_id", campaignID),
		zap.Uint("entry_id", entry.ID),
		zap.String("amount", amount.StringFixed(models.MoneyScale)),
		zap.String("current_amount", campaign.CurrentAmount.StringFixed(models.MoneyScale)))

	if s.publisher != nil {
		s.publisher.Publish(realtime.ProgressEvent{
			Type:          realtime.EventProgress,
			CampaignID:    campaignID,
			EntryID:       entry.ID,
			Amount:        amount.StringFixed(models.MoneyScale),
			CurrentAmount: campaign.CurrentAmount.StringFixed(models.MoneyScale),
			GoalAmount:    campaign.GoalAmount.StringFixed(models.MoneyScale),
			At:            now,
		})
	}

	return &entry, &campaign, nil
}

// ListEntries returns one page of a campaign's entries, newest first.
func (s *CampaignService) ListEntries(ctx context.Context, campaignID uint, page, limit int) ([]models.CampaignEntry, int64, error) {
	page, limit, err := normalizePage(page, limit)
	if err != nil {
		return nil, 0, err
	}
	db := s.db.WithContext(ctx)

	if err := s.exists(db, campaignID); err != nil {
		return nil, 0, err
	}

	query := db.Model(&models.CampaignEntry{}).Where("campaign_id = ?", campaignID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.CampaignEntry
	offset := (page - 1) * limit
	if err := query.Preload("Creator").Order("created_at desc, id desc").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Reconcile sums the entries of a campaign and compares the sum with the
// stored running total.
func (s *CampaignService) Reconcile(ctx context.Context, campaignID uint) (*Reconciliation, error) {
	var rec Reconciliation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign models.Campaign
		if err := tx.Select("id", "current_amount").First(&campaign, campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("campaign")
			}
			return err
		}

		var total decimal.Decimal
		var count int64
		row := tx.Model(&models.CampaignEntry{}).
			Select("COALESCE(SUM(amount), 0), COUNT(*)").
			Where("campaign_id = ?", campaignID).
			Row()
		if err := row.Scan(&total, &count); err != nil {
			return err
		}

		rec = Reconciliation{
			CampaignID:    campaignID,
			CurrentAmount: campaign.CurrentAmount,
			EntriesTotal:  total.Round(models.MoneyScale),
			EntryCount:    count,
		}
		rec.Consistent = rec.CurrentAmount.Equal(rec.EntriesTotal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !rec.Consistent {
		s.log.Warn("campaign total does not match its entries",
			zap.Uint("campaign_id", campaignID),
			zap.String("current_amount", rec.CurrentAmount.String()),
			zap.String("entries_total", rec.EntriesTotal.String()))
	}
	return &rec, nil
}

// VerifyEntry reports whether an entry's stored hash still matches it.
func (s *CampaignService) VerifyEntry(entry *models.CampaignEntry) bool {
	return entry.VerifyHash(s.secret)
}

func (s *CampaignService) ownedCampaign(tx *gorm.DB, id, callerID uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := tx.First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("campaign")
		}
		return nil, err
	}
	if campaign.CreatorID != callerID {
		return nil, apperr.ErrPermissionDenied
	}
	return &campaign, nil
}

func (s *CampaignService) exists(db *gorm.DB, id uint) error {
	var count int64
	if err := db.Model(&models.Campaign{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("campaign")
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return apperr.Validation("title must be at most %d characters", maxTitleLength)
	}
	return nil
}

// validateMoney enforces decimal(10,2) and strict positivity.
func validateMoney(field string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return apperr.Validation("%s must be greater than 0", field)
	}
	if !amount.Equal(amount.Round(models.MoneyScale)) {
		return apperr.Validation("%s must have at most %d decimal places", field, models.MoneyScale)
	}
	if amount.GreaterThan(models.MaxMoney) {
		return apperr.Validation("%s must not exceed %s", field, models.MaxMoney.StringFixed(models.MoneyScale))
	}
	return nil
}

func normalizePage(page, limit int) (int, int, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		return 0, 0, apperr.Validation("page must be at most %d", MaxPage)
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
