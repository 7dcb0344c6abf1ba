package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/services"
)

type BranchHandler struct {
	branchService *services.BranchService
}

func NewBranchHandler(branchService *services.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

// Index returns all branches
func (h *BranchHandler) Index(c *gin.Context) {
	branches, err := h.branchService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

// Show returns a branch by ID
func (h *BranchHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("branch_id"), 10, 32)
	branch, err := h.branchService.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branch": branch})
}

// Create registers a new branch
func (h *BranchHandler) Create(c *gin.Context) {
	var branch models.Branch
	if err := BindNestedOrFlat(c, "branch", &branch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.branchService.Create(c.Request.Context(), &branch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"branch": branch})
}

// Update saves changes to a branch
func (h *BranchHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("branch_id"), 10, 32)
	var branch models.Branch
	if err := BindNestedOrFlat(c, "branch", &branch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	branch.ID = uint(id)

	if err := h.branchService.Update(c.Request.Context(), &branch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branch": branch})
}
