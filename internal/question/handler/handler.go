package handler

import (
	"errors"
	"net/http"

	"github.com/askly/askly/backend/go-services/internal/answers"
	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"github.com/askly/askly/backend/go-services/internal/question/service"
	"github.com/askly/askly/backend/go-services/internal/tags"
	"github.com/askly/askly/backend/go-services/internal/users"
	"github.com/askly/askly/backend/go-services/internal/votes"
	"github.com/askly/askly/backend/go-services/pkg/logger"
	"github.com/askly/askly/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createQuestionRequest struct {
	Title   string   `json:"title" binding:"required,max=200"`
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags" binding:"dive,tagname"`
}

type updateQuestionRequest struct {
	Title   *string  `json:"title" binding:"omitempty,max=200"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags" binding:"omitempty,dive,tagname"`
}

type voteRequest struct {
	Action string `json:"action" binding:"required,oneof=upvote downvote unvote"`
}

type bulkDeleteRequest struct {
	IDs      []string `json:"ids"`
	AuthorID string   `json:"authorId"`
	TagID    string   `json:"tagId"`
}

type answerRequest struct {
	Content string `json:"content" binding:"required"`
}

type registerUserRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"omitempty,email"`
}

type listQuery struct {
	pagination.Options
	AuthorID string `form:"authorId"`
	TagID    string `form:"tagId"`
}

// Handler exposes the question workflows over HTTP.
type Handler struct {
	questions *service.Service
	answers   *answers.Service
	tags      *tags.Manager
	users     *users.Service
	log       *logger.Logger
}

func NewHandler(q *service.Service, a *answers.Service, t *tags.Manager, u *users.Service) *Handler {
	return &Handler{questions: q, answers: a, tags: t, users: u, log: logger.Named("http")}
}

// Register mounts the routes on rg. Mutating routes require the X-User-ID header.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.Use(middleware.IdentityMiddleware())
	auth := middleware.RequireUser()

	q := rg.Group("/questions")
	q.GET("", h.List)
	q.POST("", auth, h.Create)
	q.POST("/bulk-delete", auth, h.BulkDelete)
	q.GET("/:id", h.Get)
	q.PATCH("/:id", auth, h.Update)
	q.DELETE("/:id", auth, h.Delete)
	q.POST("/:id/vote", auth, h.Vote)
	q.POST("/:id/save", auth, h.Save)
	q.POST("/:id/view", h.View)
	q.GET("/:id/answers", h.ListAnswers)
	q.POST("/:id/answers", auth, h.CreateAnswer)

	rg.GET("/tags", h.ListTags)
	rg.POST("/users", h.RegisterUser)
	rg.GET("/users/:id", h.GetUser)
	rg.GET("/users/:id/answered-questions", h.ListAnsweredBy)
}

func (h *Handler) Create(c *gin.Context) {
	var req createQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := middleware.UserID(c)
	q, err := h.questions.Create(c.Request.Context(), userID, service.CreateInput{Title: req.Title, Content: req.Content, Tags: req.Tags})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	q, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) List(c *gin.Context) {
	var lq listQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var filter models.QuestionFilter
	if lq.AuthorID != "" {
		id, err := primitive.ObjectIDFromHex(lq.AuthorID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid authorId"})
			return
		}
		filter.AuthorID = &id
	}
	if lq.TagID != "" {
		id, err := primitive.ObjectIDFromHex(lq.TagID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tagId"})
			return
		}
		filter.TagID = &id
	}
	page, err := h.questions.List(c.Request.Context(), filter, lq.Options)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := middleware.UserID(c)
	q, err := h.questions.Update(c.Request.Context(), userID, id, service.UpdateInput{Title: req.Title, Content: req.Content, Tags: req.Tags})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	res, err := h.questions.DeleteByID(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDeleteResponse(res))
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter, err := req.filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.questions.BulkDelete(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDeleteResponse(res))
}

func (h *Handler) Vote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, err := votes.ParseAction(req.Action)
	if err != nil {
		h.writeError(c, err)
		return
	}
	userID, _ := middleware.UserID(c)
	eff, err := h.questions.Vote(c.Request.Context(), userID, id, action)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":         eff.To.String(),
		"upvoteDelta":   eff.UpvoteDelta,
		"downvoteDelta": eff.DownvoteDelta,
	})
}

func (h *Handler) Save(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	saved, err := h.questions.HandleSave(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

func (h *Handler) View(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.questions.IncreaseView(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateAnswer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := middleware.UserID(c)
	a, err := h.answers.Create(c.Request.Context(), id, userID, req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAnswers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var opts pagination.Options
	if err := c.ShouldBindQuery(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := h.answers.ListByQuestion(c.Request.Context(), id, opts)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) ListTags(c *gin.Context) {
	var opts pagination.Options
	if err := c.ShouldBindQuery(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := h.tags.List(c.Request.Context(), opts)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.users.FindByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) ListAnsweredBy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var opts pagination.Options
	if err := c.ShouldBindQuery(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := h.questions.ListAnsweredBy(c.Request.Context(), id, opts)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case votes.IsRejection(err),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, answers.ErrInvalidInput),
		errors.Is(err, users.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, votes.ErrLockTimeout):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}
