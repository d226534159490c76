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

type TemplateHandler struct {
	templateService service.TemplateService
}

func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func (h *TemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	templates := router.Group("/api/templates")
	{
		templates.GET("", middleware.RequirePermission("templates.read"), h.ListTemplates)
		templates.GET("/:id", middleware.RequirePermission("templates.read"), h.GetTemplate)
		templates.POST("", middleware.RequirePermission("templates.write"), h.CreateTemplate)
		templates.PUT("/:id", middleware.RequirePermission("templates.write"), h.UpdateTemplate)
		templates.PATCH("/:id/active", middleware.RequirePermission("templates.write"), h.SetTemplateActive)
	}
}

// ListTemplates returns the full template catalogue, base steps first
// @Summary      List approval templates
// @Tags         templates
// @Produce      json
// @Param        page   query     int  false  "page"
// @Param        limit  query     int  false  "limit"
// @Success      200    {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	params := pagination.Parse(c)
	templates, total, err := h.templateService.ListTemplates(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   templates,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetTemplate returns one template by id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid template id"))
		return
	}

	template, err := h.templateService.GetTemplate(c.Request.Context(), id)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, template))
}

// CreateTemplate adds a base or insert step definition
// @Summary      Create an approval template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        template  body      service.CreateTemplateDTO  true  "template payload"
// @Success      201       {object}  response.Response
// @Failure      400       {object}  response.Response
// @Security     BearerAuth
// @Router       /api/templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req service.CreateTemplateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	template, err := h.templateService.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, template))
}

// UpdateTemplate replaces a template definition
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid template id"))
		return
	}

	var req service.UpdateTemplateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	template, err := h.templateService.UpdateTemplate(c.Request.Context(), id, req)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, template))
}

// SetTemplateActive toggles a template without losing its definition
func (h *TemplateHandler) SetTemplateActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid template id"))
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	template, err := h.templateService.SetTemplateActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		status := httpStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, template))
}
