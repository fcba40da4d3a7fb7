// Package http содержит HTTP-обработчики REST API.
package http

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storyforge-server/internal/delivery/http/middleware"
	"storyforge-server/internal/model"
	"storyforge-server/internal/service"
)

// recentStoriesLimit — размер списка недавних историй.
const recentStoriesLimit = 10

// Счетчики основных доменных событий
var (
	storiesGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyforge_stories_generated_total",
		Help: "Total number of successfully generated stories.",
	})
	pdfExportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyforge_pdf_exports_total",
		Help: "Total number of successful PDF exports.",
	})
)

// Handler обрабатывает HTTP-запросы API историй.
type Handler struct {
	stories *service.StoryService
	auth    *service.AuthService
}

// New создает новый экземпляр обработчика.
func New(stories *service.StoryService, auth *service.AuthService) *Handler {
	return &Handler{
		stories: stories,
		auth:    auth,
	}
}

// RegisterRoutes регистрирует маршруты API на роутере.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	api.Use(middleware.RequestID())

	api.GET("/stories/recent", h.getRecentStories)
	api.GET("/stories/:id", h.getStory)
	api.POST("/stories/generate", h.generateStory)
	api.POST("/stories/export-pdf", h.exportPDF)

	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
}

// getRecentStories возвращает недавние истории, новые первыми.
// Персонажи к списку не прикрепляются.
func (h *Handler) getRecentStories(c *gin.Context) {
	stories, err := h.stories.RecentStories(c.Request.Context(), recentStoriesLimit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if stories == nil {
		stories = []model.Story{}
	}
	c.JSON(http.StatusOK, stories)
}

// getStory возвращает историю вместе с персонажами.
func (h *Handler) getStory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid story ID"})
		return
	}

	story, err := h.stories.GetStory(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// generateStory валидирует параметры, вызывает конвейер генерации и
// возвращает созданную историю с персонажами.
func (h *Handler) generateStory(c *gin.Context) {
	var params model.GenerateStoryParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
		return
	}

	story, err := h.stories.Generate(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	storiesGeneratedTotal.Inc()
	c.JSON(http.StatusOK, story)
}

type exportPDFRequest struct {
	StoryID int `json:"storyId" binding:"required"`
}

// exportPDF отдает историю как PDF-вложение.
func (h *Handler) exportPDF(c *gin.Context) {
	var req exportPDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request"})
		return
	}

	story, data, err := h.stories.ExportPDF(c.Request.Context(), req.StoryID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	pdfExportsTotal.Inc()
	c.Header("Content-Disposition", "attachment; filename="+url.PathEscape(story.Title)+".pdf")
	c.Data(http.StatusOK, "application/pdf", data)
}

// register создает нового пользователя.
func (h *Handler) register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// login проверяет учетные данные и возвращает токен доступа.
func (h *Handler) login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}
