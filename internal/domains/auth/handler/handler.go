package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardvault-backend/internal/domains/auth"
	"cardvault-backend/internal/shared/apperr"
	"cardvault-backend/internal/shared/middleware"
	"cardvault-backend/internal/shared/response"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("username and password are required"))
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", sessionPayload(session))
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("refreshToken is required"))
		return
	}

	session, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "token refreshed", gin.H{
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
	})
}

// Logout handles POST /auth/logout. Always succeeds so a client can't
// probe whether a token was already revoked.
func (h *Handler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("refreshToken is required"))
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "logged out", nil)
}

// CurrentUser handles GET /auth/user, returning the authenticated
// principal or a guest payload when the request carried no token.
func (h *Handler) CurrentUser(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	roles := middleware.RolesFromContext(c)

	if principal == middleware.AnonymousPrincipal {
		response.Success(c, http.StatusOK, "guest", gin.H{
			"authenticated": false,
		})
		return
	}

	response.Success(c, http.StatusOK, "ok", gin.H{
		"authenticated": true,
		"username":      principal,
		"roles":         roles,
	})
}

// ListUsers handles GET /users (admin only): every seeded principal,
// never including a password hash.
func (h *Handler) ListUsers(c *gin.Context) {
	principals, err := h.service.ListPrincipals(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	out := make([]map[string]interface{}, 0, len(principals))
	for _, p := range principals {
		out = append(out, p.Sanitize())
	}

	response.Success(c, http.StatusOK, "ok", out)
}

func sessionPayload(session *auth.Session) gin.H {
	return gin.H{
		"accessToken":   session.AccessToken,
		"refreshToken":  session.RefreshToken,
		"username":      session.Principal.Username,
		"roles":         []string{string(session.Principal.Role)},
		"authenticated": true,
	}
}
