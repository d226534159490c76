package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApprovalHandler struct {
	decisionService service.DecisionService
	bypassService   service.BypassService
}

func NewApprovalHandler(decisionService service.DecisionService, bypassService service.BypassService) *ApprovalHandler {
	return &ApprovalHandler{decisionService: decisionService, bypassService: bypassService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	documents := router.Group("/api/documents")
	{
		documents.POST("/:id/decisions", middleware.RequireRole("admin", "approver", "staff"), h.SubmitDecision)
		documents.POST("/:id/bypass", middleware.RequireRole("admin"), h.AdminBypass)
	}
}

// SubmitDecision applies one approval/rejection decision on the caller's step
// @Summary      Submit an approval decision
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id        path      string                     true  "document id"
// @Param        decision  body      service.SubmitDecisionDTO  true  "decision payload"
// @Success      200       {object}  response.Response{data=service.DocumentResponse}
// @Failure      404       {object}  response.Response
// @Failure      409       {object}  response.Response
// @Failure      422       {object}  response.Response
// @Security     BearerAuth
// @Router       /api/documents/{id}/decisions [post]
func (h *ApprovalHandler) SubmitDecision(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}

	var req service.SubmitDecisionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	approverID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid user identity"))
		return
	}

	result, err := h.decisionService.SubmitDecision(c.Request.Context(), documentID, approverID, req.Status, req.Note)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AdminBypass force-advances or force-completes a stuck chain
// @Summary      Administrative bypass
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id      path      string                  true  "document id"
// @Param        bypass  body      service.AdminBypassDTO  true  "bypass payload"
// @Success      200     {object}  response.Response{data=service.DocumentResponse}
// @Failure      404     {object}  response.Response
// @Failure      409     {object}  response.Response
// @Failure      422     {object}  response.Response
// @Security     BearerAuth
// @Router       /api/documents/{id}/bypass [post]
func (h *ApprovalHandler) AdminBypass(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}

	var req service.AdminBypassDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	adminID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid user identity"))
		return
	}

	result, err := h.bypassService.AdminBypass(c.Request.Context(), documentID, adminID, req.TargetStatus, req.Reason)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
