package city

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/tripcost-seeder/internal/api"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewCityHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// SearchCities handles GET /api/locations/cities?q=<text>
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "SearchCities")
	defer span.End()

	l := h.logger.With(slog.String("method", "SearchCities"))
	query := api.QueryString(r, "q")
	span.SetAttributes(attribute.String("query", query))

	cities, err := h.service.SearchCities(ctx, query)
	if err != nil {
		l.ErrorContext(ctx, "Failed to search cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve cities")
		return
	}

	l.DebugContext(ctx, "Returning cities", slog.String("query", query), slog.Int("count", len(cities)))
	span.SetStatus(codes.Ok, "Cities returned successfully")
	api.WriteJSONResponse(w, r, http.StatusOK, cities)
}
