package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"salonpro-agenda/services"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// tenantFrom reads the tenant set by the auth middleware and answers 401 when missing.
func tenantFrom(c *gin.Context) (uuid.UUID, bool) {
	tenantID, ok := utils.TenantFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Tenant ID not found in context")
	}
	return tenantID, ok
}

func pathID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+entity+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, input interface{}) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return false
	}
	return true
}

// dateQuery parses an optional YYYY-MM-DD query parameter in loc.
func dateQuery(c *gin.Context, name string, loc *time.Location) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	d, err := time.ParseInLocation(utils.DateLayout, raw, loc)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" date, expected YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return n, true
}

// windowQuery reads window, from and to. A from/to pair without a window
// selects a custom range.
func windowQuery(c *gin.Context, loc *time.Location) (services.WindowSelector, *time.Time, *time.Time, bool) {
	from, ok := dateQuery(c, "from", loc)
	if !ok {
		return "", nil, nil, false
	}
	to, ok := dateQuery(c, "to", loc)
	if !ok {
		return "", nil, nil, false
	}
	sel := services.ParseWindowSelector(strings.TrimSpace(c.Query("window")))
	if sel == "" {
		sel = services.WindowThisMonth
		if from != nil || to != nil {
			sel = services.WindowCustom
		}
	}
	return sel, from, to, true
}
