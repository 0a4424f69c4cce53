package campaign

import (
	"crowdx-backend/internal/middleware"
	"crowdx-backend/internal/realtime"
	"crowdx-backend/internal/services"
	"crowdx-backend/internal/utils"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	campaigns      *services.CampaignService
	hub            *realtime.Hub
	allowedOrigins []string
	log            *zap.Logger
	now            func() time.Time
}

func NewHandler(campaigns *services.CampaignService, hub *realtime.Hub, allowedOrigins []string, log *zap.Logger) *Handler {
	return &Handler{
		campaigns:      campaigns,
		hub:            hub,
		allowedOrigins: allowedOrigins,
		log:            log,
		now:            time.Now,
	}
}

// ListCampaigns godoc
// @Summary List campaigns
// @Description Paginated list, newest first.
// @Tags campaigns
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param search query string false "Match title or description"
// @Param creator_id query int false "Filter by creator"
// @Param mine query bool false "Only the caller's campaigns"
// @Param active query bool false "Hide campaigns past their end date"
// @Success 200 {object} utils.Response{data=campaign.CampaignListResponse}
// @Failure 400 {object} utils.Response
// @Router /campaigns/ [get]
func (h *Handler) ListCampaigns(c *gin.Context) {
	page, limit, ok := pagination(c)
	if !ok {
		return
	}

	filter := services.CampaignFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	if creatorIDStr, exists := c.GetQuery("creator_id"); exists {
		creatorID, err := strconv.ParseUint(creatorIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid creator_id"))
			return
		}
		id := uint(creatorID)
		filter.CreatorID = &id
	}

	if mine, _ := strconv.ParseBool(c.Query("mine")); mine {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Authentication is required to list your campaigns"))
			return
		}
		filter.CreatorID = &user.ID
	}

	if activeStr, exists := c.GetQuery("active"); exists {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid active flag"))
			return
		}
		filter.ActiveOnly = active
	}

	campaigns, total, err := h.campaigns.List(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	now := h.now()
	items := make([]CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		items = append(items, newCampaignResponse(&campaigns[i], now))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Campaigns retrieved successfully", CampaignListResponse{
		Campaigns: items,
		Total:     total,
		Page:      page,
		Limit:     limit,
	}))
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Description The caller becomes the creator. current_amount always starts at 0.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body CreateCampaignRequest true "Campaign"
// @Success 201 {object} utils.Response{data=campaign.CampaignResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /campaigns/ [post]
func (h *Handler) CreateCampaign(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	var input CreateCampaignRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	in := services.CreateCampaignInput{
		Title:       input.Title,
		Description: input.Description,
		GoalAmount:  *input.GoalAmount,
	}
	if input.EndDate != "" {
		end, err := time.Parse(dateLayout, input.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD"))
			return
		}
		in.EndDate = &end
	}

	campaign, err := h.campaigns.Create(c.Request.Context(), user.ID, in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Campaign created successfully", newCampaignResponse(campaign, h.now())))
}

// GetCampaign godoc
// @Summary Get a campaign
// @Tags campaigns
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} utils.Response{data=campaign.CampaignResponse}
// @Failure 404 {object} utils.Response
// @Router /campaigns/{id} [get]
func (h *Handler) GetCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	campaign, err := h.campaigns.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Campaign retrieved successfully", newCampaignResponse(campaign, h.now())))
}

// UpdateCampaign godoc
// @Summary Update a campaign
// @Description Creator only. current_amount, start_date and creator cannot be changed.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Campaign ID"
// @Param input body UpdateCampaignRequest true "Changes"
// @Success 200 {object} utils.Response{data=campaign.CampaignResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /campaigns/{id} [patch]
func (h *Handler) UpdateCampaign(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}
	id, ok := campaignID(c)
	if !ok {
		return
	}

	var input UpdateCampaignRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	in := services.UpdateCampaignInput{
		Title:       input.Title,
		Description: input.Description,
		GoalAmount:  input.GoalAmount,
	}
	if input.EndDate != nil {
		if *input.EndDate == "" {
			in.ClearEndDate = true
		} else {
			end, err := time.Parse(dateLayout, *input.EndDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD"))
				return
			}
			in.EndDate = &end
		}
	}

	campaign, err := h.campaigns.Update(c.Request.Context(), id, user.ID, in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Campaign updated successfully", newCampaignResponse(campaign, h.now())))
}

// DeleteCampaign godoc
// @Summary Delete a campaign
// @Description Creator only. Removes all of the campaign's entries.
// @Tags campaigns
// @Produce json
// @Security Bearer
// @Param id path int true "Campaign ID"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /campaigns/{id} [delete]
func (h *Handler) DeleteCampaign(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}
	id, ok := campaignID(c)
	if !ok {
		return
	}

	if err := h.campaigns.Delete(c.Request.Context(), id, user.ID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Campaign deleted successfully", nil))
}

// Contribute godoc
// @Summary Contribute to a campaign
// @Description Records an entry and raises current_amount atomically. Anonymous contributions are allowed.
// @Tags campaigns
// @Accept json
// @Produce json
// @Param id path int true "Campaign ID"
// @Param input body ContributeRequest true "Contribution"
// @Success 201 {object} utils.Response{data=campaign.ContributionResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /campaigns/{id}/entries [post]
func (h *Handler) Contribute(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	var input ContributeRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	in := services.ContributionInput{
		Amount:     *input.Amount,
		Note:       input.Note,
		IPAddress:  c.ClientIP(),
		DeviceInfo: c.Request.UserAgent(),
	}
	if user, ok := middleware.CurrentUser(c); ok {
		in.CreatorID = &user.ID
	}

	entry, campaign, err := h.campaigns.Contribute(c.Request.Context(), id, in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if user, ok := middleware.CurrentUser(c); ok {
		entry.Creator = user
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Contribution recorded successfully", ContributionResponse{
		Entry: newEntryResponse(entry),
		Campaign: CampaignProgress{
			ID:            campaign.ID,
			GoalAmount:    money(campaign.GoalAmount),
			CurrentAmount: money(campaign.CurrentAmount),
		},
	}))
}

// ListEntries godoc
// @Summary List a campaign's entries
// @Tags campaigns
// @Produce json
// @Param id path int true "Campaign ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} utils.Response{data=campaign.EntryListResponse}
// @Failure 404 {object} utils.Response
// @Router /campaigns/{id}/entries [get]
func (h *Handler) ListEntries(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	page, limit, ok := pagination(c)
	if !ok {
		return
	}

	entries, total, err := h.campaigns.ListEntries(c.Request.Context(), id, page, limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	items := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, newEntryResponse(&entries[i]))
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Entries retrieved successfully", EntryListResponse{
		Entries: items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}))
}

// ExportEntries godoc
// @Summary Export a campaign's entries
// @Description Creator only. CSV by default, xlsx on request.
// @Tags campaigns
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security Bearer
// @Param id path int true "Campaign ID"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {string} string "File content"
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /campaigns/{id}/entries/export [get]
func (h *Handler) ExportEntries(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}
	id, ok := campaignID(c)
	if !ok {
		return
	}

	export, err := h.campaigns.ExportEntries(c.Request.Context(), id, user.ID, c.DefaultQuery("format", services.ExportCSV))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

// Reconcile godoc
// @Summary Reconcile a campaign
// @Description Compares current_amount with the sum of the campaign's entries.
// @Tags campaigns
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} utils.Response{data=campaign.ReconciliationResponse}
// @Failure 404 {object} utils.Response
// @Router /campaigns/{id}/reconcile [get]
func (h *Handler) Reconcile(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	rec, err := h.campaigns.Reconcile(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Reconciliation complete", newReconciliationResponse(rec)))
}

func campaignID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid campaign ID"))
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 || page > services.MaxPage {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid page number"))
		return 0, 0, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid limit number"))
		return 0, 0, false
	}
	return page, limit, true
}
