package controllers

import (
	"net/http"

	"salonpro-agenda/models"
	"salonpro-agenda/services"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
)

// CreateCategoryInput defines the expected JSON structure for a private category
type CreateCategoryInput struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required"`
}

type RenameCategoryInput struct {
	Name string `json:"name" binding:"required"`
}

// CategoryController manages ledger categories
type CategoryController struct {
	registry *services.CategoryRegistry
}

func NewCategoryController(registry *services.CategoryRegistry) *CategoryController {
	return &CategoryController{registry: registry}
}

// List returns the categories visible to the tenant, optionally narrowed by ?type=.
func (cc *CategoryController) List(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	var (
		list []models.Category
		err  error
	)
	if raw := c.Query("type"); raw != "" {
		typ, perr := models.ParseTransactionType(raw)
		if perr != nil {
			utils.RespondWithDomainError(c, perr, "Invalid category type")
			return
		}
		list, err = cc.registry.ListVisible(c.Request.Context(), tenantID, typ)
	} else {
		list, err = cc.registry.ListAll(c.Request.Context(), tenantID)
	}
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to retrieve categories")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create adds a private category for the salon
func (cc *CategoryController) Create(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	var input CreateCategoryInput
	if !bindJSON(c, &input) {
		return
	}
	typ, err := models.ParseTransactionType(input.Type)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Invalid category type")
		return
	}
	category, err := cc.registry.Create(c.Request.Context(), tenantID, input.Name, typ)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// Rename changes the name of a private category
func (cc *CategoryController) Rename(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "category")
	if !ok {
		return
	}
	var input RenameCategoryInput
	if !bindJSON(c, &input) {
		return
	}
	category, err := cc.registry.Rename(c.Request.Context(), tenantID, id, input.Name)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to rename category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// Delete removes a private category that no transaction uses
func (cc *CategoryController) Delete(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "category")
	if !ok {
		return
	}
	if err := cc.registry.Delete(c.Request.Context(), tenantID, id); err != nil {
		utils.RespondWithDomainError(c, err, "Failed to delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
