package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cardvault-backend/internal/domains/catalog"
	"cardvault-backend/internal/domains/catalog/model"
	"cardvault-backend/internal/domains/catalog/seed"
	"cardvault-backend/internal/infrastructure/queue"
	"cardvault-backend/internal/shared/apperr"
	"cardvault-backend/internal/shared/response"
)

type Handler struct {
	service *catalog.Service
	queue   *queue.Queue
	seeder  *seed.Seeder
}

func NewHandler(service *catalog.Service, q *queue.Queue, seeder *seed.Seeder) *Handler {
	return &Handler{service: service, queue: q, seeder: seeder}
}

// ListCards handles GET /cards?page&size&query. A non-empty query
// routes to the uncached search path; otherwise the paginated,
// cached listing is used.
func (h *Handler) ListCards(c *gin.Context) {
	page := parseIntDefault(c.Query("page"), 0)
	size := parseIntDefault(c.Query("size"), catalog.DefaultPageSize)
	query := c.Query("query")

	var result *model.Page
	var err error
	if query != "" {
		result, err = h.service.SearchPage(c.Request.Context(), query, page, size)
	} else {
		result, err = h.service.ListPage(c.Request.Context(), page, size)
	}
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "ok", pagePayload(result))
}

// GetByName handles GET /cards/by-name?name=….
func (h *Handler) GetByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.Error(apperr.Validation("name query parameter is required"))
		return
	}
	h.respondCard(c, name)
}

// GetLegacy handles the legacy GET /cards/{name} lookup, which fails
// for names containing a path separator by construction of the
// router's path parameter matching.
func (h *Handler) GetLegacy(c *gin.Context) {
	h.respondCard(c, c.Param("name"))
}

func (h *Handler) respondCard(c *gin.Context, name string) {
	card, err := h.service.GetByName(c.Request.Context(), name)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "ok", cardPayload(card))
}

// CreateCard handles POST /cards (ADMIN).
func (h *Handler) CreateCard(c *gin.Context) {
	var req catalog.SaveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(apperr.Validation(err.Error()))
		return
	}

	saved, err := h.service.Save(c.Request.Context(), req.ToCard())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "card created", cardPayload(saved))
}

// UpdateCard handles PUT and PATCH /cards/{name} (ADMIN). PATCH and
// PUT share a handler: both replace the mutable fields wholesale,
// since the catalog has no partial-field semantics to preserve.
func (h *Handler) UpdateCard(c *gin.Context) {
	name := c.Param("name")
	var req catalog.SaveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	req.Name = name
	if err := req.Validate(); err != nil {
		c.Error(apperr.Validation(err.Error()))
		return
	}

	saved, err := h.service.Save(c.Request.Context(), req.ToCard())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "card updated", cardPayload(saved))
}

// DeleteCard handles DELETE /cards/{name} (ADMIN).
func (h *Handler) DeleteCard(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("name")); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "card deleted", nil)
}

// ListArchetypes handles GET /archetypes.
func (h *Handler) ListArchetypes(c *gin.Context) {
	archetypes, err := h.service.ListArchetypes(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "ok", archetypePayloads(archetypes))
}

// GetArchetype handles GET /archetypes/{id}.
func (h *Handler) GetArchetype(c *gin.Context) {
	a, err := h.service.GetArchetype(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "ok", archetypePayload(a))
}

// ClearCache handles POST /cards/cache/clear (ADMIN).
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.service.EvictCache(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "cache cleared", nil)
}

// CacheStats handles GET /cards/cache/stats.
func (h *Handler) CacheStats(c *gin.Context) {
	count, err := h.service.Count(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "ok", gin.H{"cachedCount": count})
}

// WarmupCache handles POST /cards/batch/warmup-cache (ADMIN), run
// asynchronously since it touches the first several pages.
func (h *Handler) WarmupCache(c *gin.Context) {
	go func() {
		_ = h.service.Warmup(c.Copy().Request.Context())
	}()
	response.Success(c, http.StatusAccepted, "warmup started", nil)
}

// BatchStatistics handles POST /cards/batch/statistics.
func (h *Handler) BatchStatistics(c *gin.Context) {
	count, err := h.service.Count(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "ok", gin.H{"totalCards": count})
}

// RunBatchJob handles POST /cards/run-batch-job (ADMIN): re-warms the
// cache synchronously as the catalog's only scheduled maintenance
// job exposed for manual trigger.
func (h *Handler) RunBatchJob(c *gin.Context) {
	if err := h.service.Warmup(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "batch job completed", nil)
}

// AsyncReload handles POST /cards/async-reload (ADMIN): triggers a
// background re-import from the upstream catalog source.
func (h *Handler) AsyncReload(c *gin.Context) {
	go h.seeder.ReloadAsync()
	response.Success(c, http.StatusAccepted, "reload started", nil)
}

// PublishEvent handles POST /cards/publish-event (ADMIN): enqueues an
// arbitrary system notification for the dispatcher to pick up.
func (h *Handler) PublishEvent(c *gin.Context) {
	var body map[string]interface{}
	_ = c.ShouldBindJSON(&body)

	if err := h.queue.Enqueue(c.Request.Context(), queue.QueueNotifications, queue.TypeSystem, body, time.Now()); err != nil {
		c.Error(apperr.Internal("publish event", err))
		return
	}
	response.Success(c, http.StatusAccepted, "event published", nil)
}

// QueueOperation handles POST /cards/queue/{q}/{op} for op in
// send/peek/size/clear, giving admins direct visibility into the
// background dispatcher's queues.
func (h *Handler) QueueOperation(c *gin.Context) {
	name := c.Param("queue")
	op := c.Param("op")

	switch op {
	case "send":
		var body map[string]interface{}
		_ = c.ShouldBindJSON(&body)
		if err := h.queue.Enqueue(c.Request.Context(), name, queue.TypeSystem, body, time.Now()); err != nil {
			c.Error(apperr.Internal("enqueue message", err))
			return
		}
		response.Success(c, http.StatusAccepted, "message queued", nil)
	case "peek":
		items, err := h.queue.Peek(c.Request.Context(), name)
		if err != nil {
			c.Error(apperr.Internal("peek queue", err))
			return
		}
		response.Success(c, http.StatusOK, "ok", items)
	case "size":
		n, err := h.queue.Len(c.Request.Context(), name)
		if err != nil {
			c.Error(apperr.Internal("queue size", err))
			return
		}
		response.Success(c, http.StatusOK, "ok", gin.H{"size": n})
	case "clear":
		if err := h.queue.Clear(c.Request.Context(), name); err != nil {
			c.Error(apperr.Internal("clear queue", err))
			return
		}
		response.Success(c, http.StatusOK, "queue cleared", nil)
	default:
		c.Error(apperr.Validation("unknown queue operation"))
	}
}

// SendNotification handles POST /cards/notification/send (ADMIN).
func (h *Handler) SendNotification(c *gin.Context) {
	var body map[string]interface{}
	_ = c.ShouldBindJSON(&body)

	if err := h.queue.Enqueue(c.Request.Context(), queue.QueueNotifications, queue.TypeEmail, body, time.Now()); err != nil {
		c.Error(apperr.Internal("send notification", err))
		return
	}
	response.Success(c, http.StatusAccepted, "notification queued", nil)
}

func cardPayload(card *model.Card) gin.H {
	archetype := ""
	if card.ArchetypeName != nil {
		archetype = *card.ArchetypeName
	}
	return gin.H{
		"id":                    card.ID,
		"name":                  card.Name,
		"humanReadableCardType": card.CardType,
		"description":           card.Description,
		"race":                  card.Race,
		"attribute":             card.Attribute,
		"archetype":             archetype,
	}
}

func archetypePayload(a *model.Archetype) gin.H {
	return gin.H{"id": a.ID, "name": a.Name}
}

func archetypePayloads(archetypes []*model.Archetype) []gin.H {
	out := make([]gin.H, 0, len(archetypes))
	for _, a := range archetypes {
		out = append(out, archetypePayload(a))
	}
	return out
}

func pagePayload(p *model.Page) gin.H {
	items := make([]gin.H, 0, len(p.Items))
	for _, c := range p.Items {
		items = append(items, cardPayload(c))
	}
	return gin.H{
		"items":        items,
		"currentPage":  p.CurrentPage,
		"pageSize":     p.PageSize,
		"totalPages":   p.TotalPages(),
		"totalItems":   p.TotalItems,
		"hasNext":      p.HasNext(),
		"hasPrevious":  p.HasPrevious(),
	}
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
