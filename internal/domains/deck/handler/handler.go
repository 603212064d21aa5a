package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardvault-backend/internal/domains/deck"
	"cardvault-backend/internal/domains/deck/model"
	"cardvault-backend/internal/shared/apperr"
	"cardvault-backend/internal/shared/authz"
	"cardvault-backend/internal/shared/middleware"
	"cardvault-backend/internal/shared/response"
)

type Handler struct {
	service *deck.Service
}

func NewHandler(service *deck.Service) *Handler {
	return &Handler{service: service}
}

type saveDeckRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListDecks handles GET /decks: a regular user sees their own decks,
// an admin sees every deck.
func (h *Handler) ListDecks(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	isAdmin := authz.IsAdmin(middleware.RolesFromContext(c))

	decks, err := h.service.ListForPrincipal(c.Request.Context(), principal, isAdmin)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "ok", deckPayloads(decks))
}

// GetDeck handles GET /decks/{id}.
func (h *Handler) GetDeck(c *gin.Context) {
	d, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "ok", deckPayload(d))
}

// CreateDeck handles POST /decks.
func (h *Handler) CreateDeck(c *gin.Context) {
	var req saveDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("name is required"))
		return
	}

	owner := middleware.PrincipalFromContext(c)
	d, err := h.service.Create(c.Request.Context(), req.Name, owner)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "deck created", deckPayload(d))
}

// UpdateDeck handles PUT /decks/{id}.
func (h *Handler) UpdateDeck(c *gin.Context) {
	var req saveDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("name is required"))
		return
	}

	principal := middleware.PrincipalFromContext(c)
	isAdmin := authz.IsAdmin(middleware.RolesFromContext(c))

	d, err := h.service.Update(c.Request.Context(), c.Param("id"), req.Name, principal, isAdmin)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "deck updated", deckPayload(d))
}

// DeleteDeck handles DELETE /decks/{id}.
func (h *Handler) DeleteDeck(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	isAdmin := authz.IsAdmin(middleware.RolesFromContext(c))

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), principal, isAdmin); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "deck deleted", nil)
}

// AddCard handles POST /decks/{id}/cards/{cardName}.
func (h *Handler) AddCard(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	isAdmin := authz.IsAdmin(middleware.RolesFromContext(c))

	result, err := h.service.AddCard(c.Request.Context(), c.Param("id"), c.Param("cardName"), principal, isAdmin)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "card added", cardCountPayload(result))
}

// RemoveCard handles DELETE /decks/{id}/cards/{cardName}.
func (h *Handler) RemoveCard(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	isAdmin := authz.IsAdmin(middleware.RolesFromContext(c))

	result, err := h.service.RemoveCard(c.Request.Context(), c.Param("id"), c.Param("cardName"), principal, isAdmin)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "card removed", cardCountPayload(result))
}

func deckPayload(d *model.Deck) gin.H {
	return gin.H{
		"id":    d.ID,
		"name":  d.Name,
		"owner": d.Owner,
		"cards": d.Cards,
	}
}

func deckPayloads(decks []*model.Deck) []gin.H {
	out := make([]gin.H, 0, len(decks))
	for _, d := range decks {
		out = append(out, deckPayload(d))
	}
	return out
}

func cardCountPayload(r *deck.CardCountResult) gin.H {
	return gin.H{"size": r.Size, "copies": r.Copies}
}
