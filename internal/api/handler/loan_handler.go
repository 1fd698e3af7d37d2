package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/ports"
)

// LoanHandler handles HTTP requests for the loan workflow.
type LoanHandler struct {
	service ports.LoanService
}

func NewLoanHandler(service ports.LoanService) *LoanHandler {
	return &LoanHandler{service: service}
}

// Create handles POST /v1/loans — request a loan.
//
// @Summary      Request a new loan
// @Tags         loans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createLoanRequest  true  "Loan request"
// @Success      201   {object}  loanResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/loans [post]
func (h *LoanHandler) Create(c echo.Context) error {
	var req createLoanRequest
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

	loan, err := h.service.Create(c.Request().Context(), ports.CreateLoanInput{
		Actor:  actor,
		BookID: req.BookID,
		Notes:  req.Notes,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toLoanResponse(loan, h.service.DisplayFee(loan)))
}

// UpdateStatus handles PATCH /v1/loans/:id/status — drive a transition.
//
// @Summary      Update loan status
// @Tags         loans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Loan id"
// @Param        body  body      updateLoanStatusRequest  true  "Target status"
// @Success      200   {object}  loanResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/loans/{id}/status [patch]
func (h *LoanHandler) UpdateStatus(c echo.Context) error {
	var req updateLoanStatusRequest
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

	loan, err := h.service.UpdateStatus(c.Request().Context(), ports.UpdateLoanStatusInput{
		Actor:  actor,
		LoanID: c.Param("id"),
		Status: domain.LoanStatus(req.Status),
		Notes:  req.Notes,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan, h.service.DisplayFee(loan)))
}

// Get handles GET /v1/loans/:id.
//
// @Summary      Get loan details
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Loan id"
// @Success      200 {object}  loanResponse
// @Failure      403 {object}  errorResponse
// @Failure      404 {object}  errorResponse
// @Router       /v1/loans/{id} [get]
func (h *LoanHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	loan, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan, h.service.DisplayFee(loan)))
}

// List handles GET /v1/loans. Members are always scoped to their own loans.
//
// @Summary      List loans
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Param        member_id  query     string  false  "Filter by member (librarian/admin only)"
// @Param        branch_id  query     string  false  "Filter by branch"
// @Param        status     query     string  false  "Filter by status"
// @Param        page       query     int     false  "Page (1-based)"
// @Param        limit      query     int     false  "Page size (max 100)"
// @Success      200        {object}  listLoansResponse
// @Router       /v1/loans [get]
func (h *LoanHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	result, err := h.service.List(c.Request().Context(), ports.ListLoansInput{
		Actor:    actor,
		MemberID: c.QueryParam("member_id"),
		BranchID: c.QueryParam("branch_id"),
		Status:   domain.LoanStatus(c.QueryParam("status")),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 20),
		SortBy:   c.QueryParam("sort_by"),
		SortAsc:  c.QueryParam("sort_order") == "asc",
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.toListResponse(result))
}

// MyHistory handles GET /v1/loans/my-history — the actor's own loans.
//
// @Summary      My loan history
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  listLoansResponse
// @Router       /v1/loans/my-history [get]
func (h *LoanHandler) MyHistory(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	result, err := h.service.List(c.Request().Context(), ports.ListLoansInput{
		Actor:    actor,
		MemberID: actor.ID,
		Status:   domain.LoanStatus(c.QueryParam("status")),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 20),
		SortBy:   c.QueryParam("sort_by"),
		SortAsc:  c.QueryParam("sort_order") == "asc",
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.toListResponse(result))
}

func (h *LoanHandler) toListResponse(r *ports.ListLoansResult) listLoansResponse {
	items := make([]loanSummaryResponse, len(r.Items))
	for i, loan := range r.Items {
		items[i] = toLoanSummaryResponse(loan, h.service.DisplayFee(loan))
	}
	return listLoansResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
