package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/librarium/loan-service/internal/core/ports"
)

// BookHandler handles HTTP requests for the catalog.
type BookHandler struct {
	service ports.BookService
}

func NewBookHandler(service ports.BookService) *BookHandler {
	return &BookHandler{service: service}
}

type createBookRequest struct {
	Title           string `json:"title" validate:"required"`
	Author          string `json:"author" validate:"required"`
	ISBN            string `json:"isbn" validate:"required,min=10,max=13"`
	Description     string `json:"description"`
	Genre           string `json:"genre"`
	PublicationYear int    `json:"publication_year"`
	TotalCopies     int    `json:"total_copies" validate:"gte=0"`
	BranchID        string `json:"branch_id" validate:"required,uuid4"`
}

type updateBookRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	Description     *string `json:"description"`
	Genre           *string `json:"genre"`
	PublicationYear *int    `json:"publication_year"`
	TotalCopies     *int    `json:"total_copies" validate:"omitempty,gte=0"`
	BranchID        *string `json:"branch_id" validate:"omitempty,uuid4"`
}

type adjustCopiesRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// Create handles POST /v1/books.
//
// @Summary      Create a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createBookRequest  true  "Book details"
// @Success      201   {object}  domain.Book
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/books [post]
func (h *BookHandler) Create(c echo.Context) error {
	var req createBookRequest
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

	book, err := h.service.Create(c.Request().Context(), ports.CreateBookInput{
		Actor:           actor,
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Description:     req.Description,
		Genre:           req.Genre,
		PublicationYear: req.PublicationYear,
		TotalCopies:     req.TotalCopies,
		BranchID:        req.BranchID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, book)
}

// Get handles GET /v1/books/:id.
func (h *BookHandler) Get(c echo.Context) error {
	book, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// Update handles PUT /v1/books/:id. Reducing total_copies below the copies
// currently out is rejected with 409.
func (h *BookHandler) Update(c echo.Context) error {
	var req updateBookRequest
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

	book, err := h.service.Update(c.Request().Context(), ports.UpdateBookInput{
		Actor:           actor,
		BookID:          c.Param("id"),
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		Genre:           req.Genre,
		PublicationYear: req.PublicationYear,
		TotalCopies:     req.TotalCopies,
		BranchID:        req.BranchID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, book)
}

// AdjustCopies handles PATCH /v1/books/:id/copies — shift total/available
// copies by a delta (e.g. restock after a lost copy).
//
// @Summary      Adjust book copies
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Book id"
// @Param        body  body      adjustCopiesRequest  true  "Copy delta"
// @Success      200   {object}  domain.Book
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/books/{id}/copies [patch]
func (h *BookHandler) AdjustCopies(c echo.Context) error {
	var req adjustCopiesRequest
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

	book, err := h.service.AdjustCopies(c.Request().Context(), actor, c.Param("id"), req.Delta)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, book)
}

// Delete handles DELETE /v1/books/:id.
func (h *BookHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/books with filtering and pagination.
func (h *BookHandler) List(c echo.Context) error {
	result, err := h.service.List(c.Request().Context(), ports.ListBooksFilter{
		BranchID:      c.QueryParam("branch_id"),
		Genre:         c.QueryParam("genre"),
		Author:        c.QueryParam("author"),
		AvailableOnly: c.QueryParam("available") == "true",
		Search:        c.QueryParam("search"),
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 20),
	})
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
