package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/contacts-api/internal/model"
)

// ContactStore is implemented by repository.ContactRepo.  Every method is
// scoped to userID.
type ContactStore interface {
	List(ctx context.Context, userID uint64, limit, offset int) ([]model.Contact, error)
	Get(ctx context.Context, userID, id uint64) (model.Contact, error)
	Create(ctx context.Context, userID uint64, in model.ContactInput) (model.Contact, error)
	Update(ctx context.Context, userID, id uint64, patch model.ContactPatch) (model.Contact, error)
	Delete(ctx context.Context, userID, id uint64) error
	Search(ctx context.Context, userID uint64, f model.ContactSearch) ([]model.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID uint64, days, limit, offset int) ([]model.Contact, error)
}

// ContactHandler serves /contacts for the authenticated user.
type ContactHandler struct {
	Store ContactStore
	Log   *zap.Logger
}

func NewContactHandler(store ContactStore, log *zap.Logger) *ContactHandler {
	if store == nil {
		panic("nil contact store passed to NewContactHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactHandler{Store: store, Log: log}
}

// defaultBirthdayDays is the window of GET /contacts/birthday: today and the
// next six days.
const defaultBirthdayDays = 7

// List: GET /contacts?limit=&offset=
func (h *ContactHandler) List(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Store.List(ctx, u.ID, limit, offset)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Birthdays: GET /contacts/birthday?limit=&offset=&days=
// 404 when nobody has a birthday in the window.
func (h *ContactHandler) Birthdays(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	days, err := queryInt(c, "days", defaultBirthdayDays, 1, 366)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Store.UpcomingBirthdays(ctx, u.ID, days, limit, offset)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if len(out) == 0 {
		return detail(c, http.StatusNotFound, "Contacts not found")
	}
	return c.JSON(http.StatusOK, out)
}

// Get: GET /contacts/:id
func (h *ContactHandler) Get(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return detail(c, http.StatusBadRequest, "invalid contact id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ct, err := h.Store.Get(ctx, u.ID, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ct)
}

// Create: POST /contacts
func (h *ContactHandler) Create(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var in model.ContactInput
	if err := bindAndValidate(c, &in); err != nil {
		return writeError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ct, err := h.Store.Create(ctx, u.ID, in)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, ct)
}

// Update: PUT /contacts/:id with only the fields to change.
func (h *ContactHandler) Update(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return detail(c, http.StatusBadRequest, "invalid contact id")
	}
	var patch model.ContactPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return writeError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ct, err := h.Store.Update(ctx, u.ID, id, patch)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ct)
}

// Delete: DELETE /contacts/:id
func (h *ContactHandler) Delete(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return detail(c, http.StatusBadRequest, "invalid contact id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.Delete(ctx, u.ID, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Find: POST /contacts/find with equality filters.  404 when nothing
// matches.
func (h *ContactHandler) Find(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var f model.ContactSearch
	if err := bindAndValidate(c, &f); err != nil {
		return writeError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Store.Search(ctx, u.ID, f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if len(out) == 0 {
		return detail(c, http.StatusNotFound, "Contacts not found")
	}
	return c.JSON(http.StatusOK, out)
}
