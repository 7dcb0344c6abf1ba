package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"
	"github.com/prendasoft/prenda-api/internal/services"
)

type PawnerHandler struct {
	pawnerService *services.PawnerService
}

func NewPawnerHandler(pawnerService *services.PawnerService) *PawnerHandler {
	return &PawnerHandler{pawnerService: pawnerService}
}

// Index returns a paginated list of pawners
func (h *PawnerHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")

	pawners, total, err := h.pawnerService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pawners": pawners, "pagination": gin.H{"total": total}})
}

// Show returns a pawner by ID, or by identity number when the id param is
// not numeric
func (h *PawnerHandler) Show(c *gin.Context) {
	param := c.Param("pawner_id")
	if id, err := strconv.ParseUint(param, 10, 32); err == nil {
		pawner, err := h.pawnerService.Get(c.Request.Context(), uint(id))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pawner": pawner})
		return
	}

	pawner, err := h.pawnerService.GetByIdentity(c.Request.Context(), param)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pawner": pawner})
}

// Create registers a new pawner
func (h *PawnerHandler) Create(c *gin.Context) {
	var pawner models.Pawner
	if err := BindNestedOrFlat(c, "pawner", &pawner); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.pawnerService.Register(c.Request.Context(), &pawner); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pawner": pawner})
}

// Update saves changes to a pawner record
func (h *PawnerHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("pawner_id"), 10, 32)
	var pawner models.Pawner
	if err := BindNestedOrFlat(c, "pawner", &pawner); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pawner.ID = uint(id)

	if err := h.pawnerService.Update(c.Request.Context(), &pawner); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pawner": pawner})
}
