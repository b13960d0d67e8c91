// controllers/service.go
package controllers

import (
	"net/http"
	"strconv"

	"salonpro-agenda/services"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateServiceInput defines the expected JSON structure for creating a service
type CreateServiceInput struct {
	Name            string           `json:"name" binding:"required"`
	Description     string           `json:"description"`
	Price           *decimal.Decimal `json:"price" binding:"required"`
	DurationMinutes int              `json:"durationMinutes" binding:"required,min=1"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	DurationMinutes *int             `json:"durationMinutes"`
	IsActive        *bool            `json:"isActive"`
}

// ServiceController manages the salon's service catalog
type ServiceController struct {
	catalog *services.CatalogService
}

func NewServiceController(catalog *services.CatalogService) *ServiceController {
	return &ServiceController{catalog: catalog}
}

// Create creates a new service for the salon
func (sc *ServiceController) Create(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	var input CreateServiceInput
	if !bindJSON(c, &input) {
		return
	}
	service, err := sc.catalog.CreateService(c.Request.Context(), tenantID, services.ServiceInput{
		Name:            input.Name,
		Description:     input.Description,
		Price:           *input.Price,
		DurationMinutes: input.DurationMinutes,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to create service")
		return
	}
	c.JSON(http.StatusCreated, service)
}

// List returns every service, or only bookable ones with ?active=true.
func (sc *ServiceController) List(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	list, err := sc.catalog.ListServices(c.Request.Context(), tenantID, activeOnly)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to retrieve services")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get retrieves a single service by ID
func (sc *ServiceController) Get(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "service")
	if !ok {
		return
	}
	service, err := sc.catalog.GetService(c.Request.Context(), tenantID, id)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Database error")
		return
	}
	c.JSON(http.StatusOK, service)
}

// Update updates an existing service
func (sc *ServiceController) Update(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "service")
	if !ok {
		return
	}
	var input UpdateServiceInput
	if !bindJSON(c, &input) {
		return
	}
	service, err := sc.catalog.UpdateService(c.Request.Context(), tenantID, id, services.ServicePatch{
		Name:            input.Name,
		Description:     input.Description,
		Price:           input.Price,
		DurationMinutes: input.DurationMinutes,
		IsActive:        input.IsActive,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to update service")
		return
	}
	c.JSON(http.StatusOK, service)
}

// Delete removes a service that no appointment references
func (sc *ServiceController) Delete(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "service")
	if !ok {
		return
	}
	if err := sc.catalog.DeleteService(c.Request.Context(), tenantID, id); err != nil {
		utils.RespondWithDomainError(c, err, "Failed to delete service")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}
