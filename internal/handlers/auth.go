package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/models"
	"github.com/campus-tuckshop/tuckshop-service/internal/service"
)

const (
	ctxUserEmail = "user_email"
	ctxUserName  = "user_name"
	ctxIsAdmin   = "is_admin"
)

// SignUp handles POST /api/v1/auth/signup. The identity oracle owns
// credentials; on success the account is provisioned with the starting
// balance.
func (h *Handlers) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := service.ValidateSignUpRequest(&req); err != nil {
		handleError(c, err)
		return
	}

	identity, err := h.identity.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}

	account, err := h.accounts.Provision(c.Request.Context(), identity.Email, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":   identity.Token,
		"account": account,
	})
}

// SignIn handles POST /api/v1/auth/signin.
func (h *Handlers) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	identity, err := h.identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	// Provision is idempotent; a first sign-in from an identity created
	// elsewhere still gets an account.
	account, err := h.accounts.Provision(c.Request.Context(), identity.Email, identity.DisplayName)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   identity.Token,
		"account": account,
	})
}

// AuthRequired validates the bearer token minted by the identity oracle and
// exposes the caller's email to downstream handlers.
func (h *Handlers) AuthRequired() gin.HandlerFunc {
	secret := []byte(h.config.Identity.JWTSecret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			h.logger.WithFields(logrus.Fields{"error": errString(err)}).Debug("Rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		email, _ := claims["email"].(string)
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no email claim"})
			return
		}

		c.Set(ctxUserEmail, email)
		if name, ok := claims["name"].(string); ok {
			c.Set(ctxUserName, name)
		}
		if admin, ok := claims["admin"].(bool); ok {
			c.Set(ctxIsAdmin, admin)
		}
		c.Next()
	}
}

// AdminRequired gates the item-entry surface on the admin claim.
func (h *Handlers) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func userEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

func errString(err error) string {
	if err == nil {
		return "token invalid"
	}
	return err.Error()
}
