package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusbot/internal/auth"
	"campusbot/internal/logging"
	"campusbot/internal/models"
	"campusbot/internal/service/assistant"
	"campusbot/internal/service/chatbot"
	"campusbot/internal/worker"
)

// Broadcaster tells other instances that a user's session ended.
type Broadcaster interface {
	Publish(ctx context.Context, inv worker.Invalidation) error
}

// Handler wires HTTP routes to the assistant service and the chat engine.
type Handler struct {
	assistant *assistant.Service
	auth      *auth.Service
	engine    *chatbot.Engine
	workers   *worker.Manager
	broadcast Broadcaster
	logger    *zap.Logger
}

// NewHandler constructs a Handler instance. broadcast may be nil.
func NewHandler(service *assistant.Service, authService *auth.Service, engine *chatbot.Engine, workers *worker.Manager, broadcast Broadcaster, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		assistant: service,
		auth:      authService,
		engine:    engine,
		workers:   workers,
		broadcast: broadcast,
		logger:    logger.Named("api"),
	}
}

// check token userID is match with param userID
func (h *Handler) requirePathUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.UserIDFromContext(c)
		if !ok || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		paramID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || paramID <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		if paramID != userID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user mismatch"})
			return
		}
		c.Next()
	}
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return 0, false
	}
	return userID, true
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.healthz)

	api := router.Group("/api")
	api.POST("/users/register", h.registerUser)
	api.POST("/users/login", h.loginUser)
	userRoutes := api.Group("/users/:id")
	userRoutes.Use(h.auth.Middleware(h.assistant), h.requirePathUser(), h.auth.CSRFMiddleware())
	userRoutes.POST("/chat", h.chat)
	userRoutes.GET("/chat/messages", h.getMessages)
	userRoutes.DELETE("/chat/messages", h.clearMessages)
	userRoutes.PATCH("/profile", h.updateProfile)
	userRoutes.POST("/logout", h.logoutUser)
	userRoutes.DELETE("", h.deleteUser)
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Degree   string `json:"degree"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.assistant.RegisterUser(c.Request.Context(), req.Username, req.Password, models.Role(req.Role), models.Degree(req.Degree))
	if err != nil {
		if errors.Is(err, assistant.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) loginUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.assistant.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	authToken, err := h.auth.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.setAuthCookies(c, authToken, csrfToken)
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"role":       user.Role,
		"degree":     user.Degree,
		"created_at": user.CreatedAt,
		"auth_token": authToken,
	})
}

type chatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

type chatResponse struct {
	Text        string          `json:"text"`
	Kind        string          `json:"kind"`
	Target      string          `json:"target,omitempty"`
	Items       []string        `json:"items,omitempty"`
	Intent      string          `json:"intent"`
	Language    string          `json:"language"`
	Sentiment   float64         `json:"sentiment"`
	UserMessage *models.Message `json:"user_message"`
	BotMessage  *models.Message `json:"bot_message"`
}

func (h *Handler) chat(c *gin.Context) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := worker.Do(c.Request.Context(), h.workers, principal.ID, func(ctx context.Context) (*chatbot.Result, error) {
		return h.engine.HandleTurn(ctx, principal, req.Message, req.Language)
	})
	if err != nil {
		switch {
		case errors.Is(err, chatbot.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, worker.ErrQueueFull):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many pending messages, please retry"})
		case errors.Is(err, worker.ErrWorkerStopped):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session ended, please retry"})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// The client is gone; the turn still completes on the worker.
			c.Status(http.StatusServiceUnavailable)
		default:
			h.internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Text:        res.Reply.Wire(),
		Kind:        string(res.Reply.Kind),
		Target:      res.Reply.Target,
		Items:       res.Reply.Items,
		Intent:      string(res.Intent),
		Language:    string(res.Language),
		Sentiment:   res.Sentiment,
		UserMessage: res.UserMessage,
		BotMessage:  res.BotMessage,
	})
}

func (h *Handler) getMessages(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	messages, err := h.assistant.GetConversation(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if messages == nil {
		messages = make([]*models.Message, 0)
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *Handler) clearMessages(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	h.releaseUser(c.Request.Context(), userID)
	if err := h.assistant.ClearConversation(c.Request.Context(), userID); err != nil {
		h.internalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type profileRequest struct {
	Degree *string `json:"degree"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Degree == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "degree is required"})
		return
	}
	degree, valid := models.ParseDegree(*req.Degree)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown degree"})
		return
	}
	if err := h.assistant.UpdateDegree(c.Request.Context(), userID, degree); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.internalError(c, err)
		return
	}
	user, err := h.assistant.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) logoutUser(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	h.releaseUser(c.Request.Context(), userID)
	if authToken, ok := auth.AuthTokenFromContext(c); ok {
		_ = h.auth.RevokeToken(c.Request.Context(), authToken)
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := h.auth.RevokeUserTokens(c.Request.Context(), id); err != nil {
		h.internalError(c, err)
		return
	}
	h.releaseUser(c.Request.Context(), id)
	if err := h.assistant.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

// releaseUser ends the user's dialogue here and on peer instances.
func (h *Handler) releaseUser(ctx context.Context, userID int64) {
	h.workers.ResetUser(ctx, userID)
	if h.broadcast == nil {
		return
	}
	if err := h.broadcast.Publish(ctx, worker.Invalidation{UserID: userID, Scope: worker.ScopeUser}); err != nil {
		h.logger.Warn("broadcast user reset", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (h *Handler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.logger.Error("request failed",
		zap.String("request_id", logging.RequestID(c)),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	ttl := int(h.auth.TokenTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	secure := gin.Mode() == gin.ReleaseMode
	setCookie(c, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    authToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	setCookie(c, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		setCookie(c, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   gin.Mode() == gin.ReleaseMode,
			HttpOnly: name == h.auth.AuthCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func setCookie(c *gin.Context, ck *http.Cookie) {
	if ck == nil {
		return
	}
	http.SetCookie(c.Writer, ck)
}
