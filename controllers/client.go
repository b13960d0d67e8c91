// controllers/client.go
package controllers

import (
	"net/http"

	"salonpro-agenda/models"
	"salonpro-agenda/services"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
)

// CreateClientInput defines the expected JSON structure for registering a client
type CreateClientInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email" binding:"omitempty,email"`
	Notes string `json:"notes"`
}

// UpdateClientInput defines the fields a client update may change
type UpdateClientInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"isActive"`
}

// ClientController manages the salon's clients
type ClientController struct {
	catalog *services.CatalogService
}

func NewClientController(catalog *services.CatalogService) *ClientController {
	return &ClientController{catalog: catalog}
}

// Create registers a new client for the salon
func (cc *ClientController) Create(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	var input CreateClientInput
	if !bindJSON(c, &input) {
		return
	}
	client, err := cc.catalog.RegisterClient(c.Request.Context(), tenantID, services.ClientInput{
		Name:  input.Name,
		Phone: input.Phone,
		Email: input.Email,
		Notes: input.Notes,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to create client")
		return
	}
	c.JSON(http.StatusCreated, client)
}

// List supports ?search= and ?status=all|active|inactive.
func (cc *ClientController) List(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	status, err := services.ParseClientStatusFilter(c.Query("status"))
	if err != nil {
		utils.RespondWithDomainError(c, err, "Invalid status filter")
		return
	}
	clients, err := cc.catalog.ListClients(c.Request.Context(), tenantID, services.ClientFilter{
		Search: c.Query("search"),
		Status: status,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to retrieve clients")
		return
	}
	c.JSON(http.StatusOK, clients)
}

// Get retrieves a single client by ID
func (cc *ClientController) Get(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "client")
	if !ok {
		return
	}
	client, err := cc.catalog.GetClient(c.Request.Context(), tenantID, id)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Database error")
		return
	}
	c.JSON(http.StatusOK, client)
}

// Update changes client details, isActive toggles the client
func (cc *ClientController) Update(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "client")
	if !ok {
		return
	}
	var input UpdateClientInput
	if !bindJSON(c, &input) {
		return
	}

	ctx := c.Request.Context()
	client, err := cc.catalog.UpdateClient(ctx, tenantID, id, services.ClientPatch{
		Name:  input.Name,
		Phone: input.Phone,
		Email: input.Email,
		Notes: input.Notes,
	})
	if err == nil && input.IsActive != nil && *input.IsActive != client.IsActive {
		if *input.IsActive {
			client, err = cc.catalog.ReactivateClient(ctx, tenantID, id)
		} else {
			client, err = cc.catalog.DeactivateClient(ctx, tenantID, id)
		}
	}
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to update client")
		return
	}
	c.JSON(http.StatusOK, client)
}

// Delete removes a client without appointments; clients with history should be deactivated.
func (cc *ClientController) Delete(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "client")
	if !ok {
		return
	}
	if err := cc.catalog.DeleteClient(c.Request.Context(), tenantID, id); err != nil {
		utils.RespondWithDomainError(c, err, "Failed to delete client")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

// Deactivate and Reactivate toggle whether a client can be booked
func (cc *ClientController) Deactivate(c *gin.Context) { cc.setActive(c, false) }
func (cc *ClientController) Reactivate(c *gin.Context) { cc.setActive(c, true) }

func (cc *ClientController) setActive(c *gin.Context, active bool) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "client")
	if !ok {
		return
	}
	var (
		client *models.Client
		err    error
	)
	if active {
		client, err = cc.catalog.ReactivateClient(c.Request.Context(), tenantID, id)
	} else {
		client, err = cc.catalog.DeactivateClient(c.Request.Context(), tenantID, id)
	}
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to update client")
		return
	}
	c.JSON(http.StatusOK, client)
}
