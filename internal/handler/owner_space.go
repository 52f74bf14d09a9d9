package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-space-rental/internal/model"
    "github.com/iliyamo/coworking-space-rental/internal/repository"
)

// OwnerHandler lets space owners manage their listings and inspect the
// reservations made against them.
type OwnerHandler struct {
    Spaces       *repository.SpaceRepo
    Reservations *repository.ReservationRepo
}

func NewOwnerHandler(spaces *repository.SpaceRepo, reservations *repository.ReservationRepo) *OwnerHandler {
    if spaces == nil || reservations == nil {
        panic("nil repository passed to NewOwnerHandler")
    }
    return &OwnerHandler{Spaces: spaces, Reservations: reservations}
}

type spaceReq struct {
    Name            string `json:"name"`
    Description     string `json:"description"`
    Address         string `json:"address"`
    Capacity        uint32 `json:"capacity"`
    HourlyRateCents uint32 `json:"hourly_rate_cents"`
}

type spaceResp struct {
    ID              uint64    `json:"id"`
    Name            string    `json:"name"`
    Description     string    `json:"description"`
    Address         string    `json:"address"`
    Capacity        uint32    `json:"capacity"`
    HourlyRateCents uint32    `json:"hourly_rate_cents"`
    IsActive        bool      `json:"is_active"`
    CreatedAt       time.Time `json:"created_at"`
}

func toSpaceResp(s *model.Space) spaceResp {
    return spaceResp{
        ID:              s.ID,
        Name:            s.Name,
        Description:     s.Description,
        Address:         s.Address,
        Capacity:        s.Capacity,
        HourlyRateCents: s.HourlyRateCents,
        IsActive:        s.IsActive,
        CreatedAt:       s.CreatedAt,
    }
}

func (r *spaceReq) validate() string {
    r.Name = strings.TrimSpace(r.Name)
    r.Address = strings.TrimSpace(r.Address)
    if r.Name == "" {
        return "name required"
    }
    if r.Capacity == 0 {
        return "capacity must be positive"
    }
    if r.HourlyRateCents == 0 {
        return "hourly_rate_cents must be positive"
    }
    return ""
}

// CreateSpace lists a new space owned by the caller.
func (h *OwnerHandler) CreateSpace(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req spaceReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    s := &model.Space{
        OwnerID:         uid,
        Name:            req.Name,
        Description:     req.Description,
        Address:         req.Address,
        Capacity:        req.Capacity,
        HourlyRateCents: req.HourlyRateCents,
    }
    if err := h.Spaces.Create(ctx, s); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create space failed"})
    }
    return c.JSON(http.StatusCreated, toSpaceResp(s))
}

// ListMySpaces lists every space owned by the caller, inactive ones
// included.
func (h *OwnerHandler) ListMySpaces(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    spaces, err := h.Spaces.ListByOwner(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]spaceResp, 0, len(spaces))
    for _, s := range spaces {
        out = append(out, toSpaceResp(s))
    }
    return c.JSON(http.StatusOK, echo.Map{"spaces": out})
}

// UpdateSpace edits one of the caller's spaces.
func (h *OwnerHandler) UpdateSpace(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
    }
    var req spaceReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // Load first so the update cannot silently flip is_active.
    existing, err := h.Spaces.GetByIDAndOwner(ctx, id, uid)
    if err != nil {
        if err == repository.ErrSpaceNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    s := &model.Space{
        ID:              id,
        Name:            req.Name,
        Description:     req.Description,
        Address:         req.Address,
        Capacity:        req.Capacity,
        HourlyRateCents: req.HourlyRateCents,
        IsActive:        existing.IsActive,
        CreatedAt:       existing.CreatedAt,
    }
    if err := h.Spaces.Update(ctx, s, uid); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.JSON(http.StatusOK, toSpaceResp(s))
}

// DeactivateSpace hides a space from customers. Existing reservations
// are untouched.
func (h *OwnerHandler) DeactivateSpace(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Spaces.Deactivate(ctx, id, uid); err != nil {
        switch err {
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// ListSpaceReservations lists reservations made against one of the
// caller's spaces.
func (h *OwnerHandler) ListSpaceReservations(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    list, err := h.Reservations.ListBySpaceForOwner(ctx, id, uid)
    if err != nil {
        switch err {
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]reservationPart, 0, len(list))
    for _, r := range list {
        out = append(out, toReservationPart(r))
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}
