package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"salonpro-agenda/models"
	"salonpro-agenda/store"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountStore is the identity persistence the auth endpoints need.
type AccountStore interface {
	Register(ctx context.Context, tenant *models.Tenant, owner *models.User) error
	FindUserByLogin(ctx context.Context, identifier string) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// RegisterInput defines the expected JSON structure for signing up a salon and its owner
type RegisterInput struct {
	Email        string       `json:"email" binding:"required,email"`
	Phone        string       `json:"phone" binding:"required"`
	Name         string       `json:"name" binding:"required"`
	Password     string       `json:"password" binding:"required,min=8"`
	SalonName    string       `json:"salonName" binding:"required"`
	SalonAddress string       `json:"salonAddress"`
	WorkingHours models.JSONB `json:"workingHours"`
}

// LoginInput accepts an email or phone as identifier
type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

// AuthController handles sign up, login and the current session
type AuthController struct {
	accounts      AccountStore
	tokens        *utils.TokenManager
	secureCookies bool
	log           *zap.Logger
}

func NewAuthController(accounts AccountStore, tokens *utils.TokenManager, secureCookies bool, log *zap.Logger) *AuthController {
	return &AuthController{accounts: accounts, tokens: tokens, secureCookies: secureCookies, log: log}
}

// Register creates the salon and its owner, then starts a session
func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	tenant := models.Tenant{
		Name:             strings.TrimSpace(input.SalonName),
		Address:          input.SalonAddress,
		Phone:            utils.NormalizePhone(input.Phone),
		WorkingHours:     input.WorkingHours,
		RemindersEnabled: true,
	}
	if tenant.WorkingHours == nil {
		tenant.WorkingHours = models.DefaultWorkingHours()
	}
	owner := models.User{
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:    utils.NormalizePhone(input.Phone),
		Name:     input.Name,
		Password: input.Password, // hashed in BeforeCreate
		Role:     models.RoleOwner,
		IsActive: true,
	}

	if err := ac.accounts.Register(c.Request.Context(), &tenant, &owner); err != nil {
		if errors.Is(err, store.ErrConflict) {
			utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
			return
		}
		utils.RespondWithDomainError(c, err, "Failed to create account")
		return
	}
	ac.log.Info("account registered", zap.Stringer("tenant_id", tenant.ID), zap.Stringer("user_id", owner.ID))

	token, ok := ac.issueToken(c, owner)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userView(owner, tenant.Name),
	})
}

// Login checks the credentials and sets the token cookie
func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := ac.accounts.FindUserByLogin(c.Request.Context(), strings.TrimSpace(input.Identifier))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		utils.RespondWithDomainError(c, err, "Database error")
		return
	}
	if !user.IsActive || !user.CheckPassword(input.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, ok := ac.issueToken(c, user)
	if !ok {
		return
	}
	if err := ac.accounts.TouchLastLogin(c.Request.Context(), user.ID, time.Now()); err != nil {
		ac.log.Warn("failed to update last login", zap.Stringer("user_id", user.ID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userView(user, ""),
	})
}

// Me returns the authenticated user
func (ac *AuthController) Me(c *gin.Context) {
	userID, ok := utils.UserFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	user, err := ac.accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(user, "")})
}

func (ac *AuthController) issueToken(c *gin.Context, user models.User) (string, bool) {
	token, err := ac.tokens.GenerateToken(user.ID, user.TenantID, string(user.Role))
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to generate token")
		return "", false
	}
	c.SetCookie(utils.TokenCookie, token, int(ac.tokens.Expiry().Seconds()), "/", "", ac.secureCookies, true)
	return token, true
}

func userView(u models.User, salonName string) gin.H {
	view := gin.H{
		"id":       u.ID,
		"tenantId": u.TenantID,
		"email":    u.Email,
		"phone":    u.Phone,
		"name":     u.Name,
		"role":     u.Role,
	}
	if salonName != "" {
		view["salonName"] = salonName
	}
	return view
}
