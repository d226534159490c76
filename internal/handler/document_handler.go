package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentHandler struct {
	documentService service.DocumentService
	decisionService service.DecisionService
}

func NewDocumentHandler(documentService service.DocumentService, decisionService service.DecisionService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, decisionService: decisionService}
}

func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	documents := router.Group("/api/documents")
	{
		documents.POST("", middleware.RequireRole("admin", "approver", "staff"), h.CreateDocument)
		documents.GET("/:id", middleware.RequireRole("admin", "approver", "staff"), h.GetDocument)
		documents.GET("/:id/history", middleware.RequireRole("admin", "approver", "staff"), h.ListHistory)
	}
}

// CreateDocument submits a new document and builds its approval chain
// @Summary      Create a document
// @Description  Creates an authorization or handover document and its approval chain
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        document  body      service.CreateDocumentDTO  true  "document payload"
// @Success      201       {object}  response.Response{data=service.DocumentResponse}
// @Failure      400       {object}  response.Response
// @Security     BearerAuth
// @Router       /api/documents [post]
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req service.CreateDocumentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	submitterID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid user identity"))
		return
	}

	result, err := h.documentService.CreateDocument(c.Request.Context(), submitterID, req)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// GetDocument returns a document with its full approval chain
// @Summary      Get a document with steps
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "document id"
// @Success      200  {object}  response.Response{data=service.DocumentResponse}
// @Failure      404  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}

	result, err := h.decisionService.GetChain(c.Request.Context(), documentID)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListHistory returns the paginated audit trail of a document
// @Summary      List document history
// @Tags         documents
// @Produce      json
// @Param        id     path      string  true   "document id"
// @Param        page   query     int     false  "page"
// @Param        limit  query     int     false  "limit"
// @Success      200    {object}  response.Response{data=[]service.HistoryResponse}
// @Failure      404    {object}  response.Response
// @Security     BearerAuth
// @Router       /api/documents/{id}/history [get]
func (h *DocumentHandler) ListHistory(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}

	params := pagination.Parse(c)
	entries, total, err := h.documentService.ListHistory(c.Request.Context(), documentID, params.Page, params.Limit)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   entries,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// currentUserID extracts the authenticated user's id set by the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, _ := c.Get("userID")
	str, _ := raw.(string)
	return uuid.Parse(str)
}
