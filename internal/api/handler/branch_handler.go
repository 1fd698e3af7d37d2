package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/librarium/loan-service/internal/core/ports"
)

// BranchHandler handles HTTP requests for library branches.
type BranchHandler struct {
	service ports.BranchService
}

func NewBranchHandler(service ports.BranchService) *BranchHandler {
	return &BranchHandler{service: service}
}

type createBranchRequest struct {
	Name        string `json:"name" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Description string `json:"description"`
	Phone       string `json:"phone_number"`
	Email       string `json:"email" validate:"omitempty,email"`
}

type updateBranchRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	Phone       *string `json:"phone_number"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Active      *bool   `json:"is_active"`
}

// Create handles POST /v1/branches.
//
// @Summary      Create a branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createBranchRequest  true  "Branch details"
// @Success      201   {object}  domain.Branch
// @Failure      422   {object}  errorResponse
// @Router       /v1/branches [post]
func (h *BranchHandler) Create(c echo.Context) error {
	var req createBranchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	branch, err := h.service.Create(c.Request().Context(), ports.CreateBranchInput{
		Actor:       actor,
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
		Phone:       req.Phone,
		Email:       req.Email,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, branch)
}

// Get handles GET /v1/branches/:id.
func (h *BranchHandler) Get(c echo.Context) error {
	branch, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, branch)
}

// Update handles PUT /v1/branches/:id.
func (h *BranchHandler) Update(c echo.Context) error {
	var req updateBranchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	branch, err := h.service.Update(c.Request().Context(), ports.UpdateBranchInput{
		Actor:       actor,
		BranchID:    c.Param("id"),
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
		Phone:       req.Phone,
		Email:       req.Email,
		Active:      req.Active,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, branch)
}

// Delete handles DELETE /v1/branches/:id. The branch is deactivated rather
// than removed so its books keep a valid association.
func (h *BranchHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/branches.
func (h *BranchHandler) List(c echo.Context) error {
	filter := ports.ListBranchesFilter{
		Search: c.QueryParam("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}
	if v := c.QueryParam("active"); v != "" {
		active := v == "true"
		filter.Active = &active
	}

	result, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": result.Items,
		"pagination": paginationResponse{
			Total:      result.Total,
			Page:       result.Page,
			Limit:      result.Limit,
			TotalPages: result.TotalPages,
		},
	})
}
