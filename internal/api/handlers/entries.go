package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jmcallister/golfpool/internal/services"
	"github.com/jmcallister/golfpool/pkg/config"
	"github.com/jmcallister/golfpool/pkg/utils"
)

type EntriesHandler struct {
	registry *services.PickRegistry
	cfg      *config.Config
}

func NewEntriesHandler(registry *services.PickRegistry, cfg *config.Config) *EntriesHandler {
	return &EntriesHandler{registry: registry, cfg: cfg}
}

// ListEntries returns every pool entry with picks and payment status.
func (h *EntriesHandler) ListEntries(c *gin.Context) {
	entries, err := h.registry.List()
	if err != nil {
		utils.SendInternalError(c, "failed to load pool entries")
		return
	}
	utils.SendSuccess(c, entries)
}

// ImportEntries re-reads the seed file and upserts its entries. Used
// when the sign-up sheet changes mid-week.
func (h *EntriesHandler) ImportEntries(c *gin.Context) {
	imported, err := h.registry.ImportFile(h.cfg.EntriesFile)
	if err != nil {
		utils.SendValidationError(c, "entry import failed", err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{"imported": imported})
}

type paymentRequest struct {
	Name string `json:"name" binding:"required"`
	Paid bool   `json:"paid"`
}

// SetPayment updates a participant's payment flag. Display only; ranking
// never looks at it.
func (h *EntriesHandler) SetPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "name is required", err.Error())
		return
	}

	if err := h.registry.SetPaid(req.Name, req.Paid); err != nil {
		utils.SendNotFound(c, err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{"name": req.Name, "paid": req.Paid})
}
