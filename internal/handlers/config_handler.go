package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/services"
)

type ConfigHandler struct {
	configService *services.ChargeConfigService
}

func NewConfigHandler(configService *services.ChargeConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// Show returns the charge configuration currently in effect
func (h *ConfigHandler) Show(c *gin.Context) {
	snapshot, err := h.configService.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": snapshot})
}

// History returns all versions of one configuration key, newest first
func (h *ConfigHandler) History(c *gin.Context) {
	entries, err := h.configService.ListEntries(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// CreateEntry adds a new configuration value, versioned by effective date
func (h *ConfigHandler) CreateEntry(c *gin.Context) {
	var entry models.ChargeConfigEntry
	if err := BindNestedOrFlat(c, "entry", &entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.configService.AddEntry(c.Request.Context(), &entry); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// Brackets returns the active service charge brackets
func (h *ConfigHandler) Brackets(c *gin.Context) {
	brackets, err := h.configService.Brackets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brackets": brackets})
}

// CreateBracket adds a service charge bracket
func (h *ConfigHandler) CreateBracket(c *gin.Context) {
	var bracket models.ServiceChargeBracket
	if err := BindNestedOrFlat(c, "bracket", &bracket); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.configService.AddBracket(c.Request.Context(), &bracket); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bracket": bracket})
}
