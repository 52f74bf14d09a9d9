package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-space-rental/internal/model"
    "github.com/iliyamo/coworking-space-rental/internal/repository"
)

// PublicHandler exposes the unauthenticated browse endpoints. Responses
// are sanitized: owner ids and inactive records never leave this layer.
type PublicHandler struct {
    Spaces *repository.SpaceRepo
    Plans  *repository.PlanRepo
}

func NewPublicHandler(s *repository.SpaceRepo, p *repository.PlanRepo) *PublicHandler {
    return &PublicHandler{Spaces: s, Plans: p}
}

type publicSpace struct {
    ID              uint64 `json:"id"`
    Name            string `json:"name"`
    Description     string `json:"description"`
    Address         string `json:"address"`
    Capacity        uint32 `json:"capacity"`
    HourlyRateCents uint32 `json:"hourly_rate_cents"`
}

type publicPlan struct {
    ID          uint64 `json:"id"`
    Name        string `json:"name"`
    Description string `json:"description"`
    PriceCents  uint32 `json:"price_cents"`
    PeriodDays  uint32 `json:"period_days"`
}

func toPublicSpace(s *model.Space) publicSpace {
    return publicSpace{
        ID:              s.ID,
        Name:            s.Name,
        Description:     s.Description,
        Address:         s.Address,
        Capacity:        s.Capacity,
        HourlyRateCents: s.HourlyRateCents,
    }
}

// GetPublicSpaces lists all active spaces for guests.
func (h *PublicHandler) GetPublicSpaces(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    spaces, err := h.Spaces.ListActive(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]publicSpace, 0, len(spaces))
    for _, s := range spaces {
        out = append(out, toPublicSpace(s))
    }
    return c.JSON(http.StatusOK, echo.Map{"spaces": out})
}

// GetPublicSpace returns one active space by id.
func (h *PublicHandler) GetPublicSpace(c echo.Context) error {
    id, err := parseID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    s, err := h.Spaces.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrSpaceNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !s.IsActive {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
    }
    return c.JSON(http.StatusOK, toPublicSpace(s))
}

// GetPublicPlans lists all active subscription plans.
func (h *PublicHandler) GetPublicPlans(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    plans, err := h.Plans.ListActive(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]publicPlan, 0, len(plans))
    for _, p := range plans {
        out = append(out, publicPlan{
            ID:          p.ID,
            Name:        p.Name,
            Description: p.Description,
            PriceCents:  p.PriceCents,
            PeriodDays:  p.PeriodDays,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"plans": out})
}
