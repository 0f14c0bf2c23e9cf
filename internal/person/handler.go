package person

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/internal/models"
	"github.com/fkhayef/splitledger/pkg/response"
)

// PersonResponse represents the response for a person.
type PersonResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func toResponse(p *models.Person) *PersonResponse {
	return &PersonResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Handler handles HTTP requests for person operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new person handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for person endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}

// List handles GET /people
// @Summary      List all people
// @Description  Get everyone who has appeared as a payer or participant
// @Tags         people
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]PersonResponse}
// @Router       /people [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.service.List(r.Context())
	if err != nil {
		slog.Error("failed to list people", "error", err)
		response.InternalError(w, "Failed to list people")
		return
	}

	responses := make([]*PersonResponse, len(people))
	for i := range people {
		responses[i] = toResponse(&people[i])
	}

	response.JSON(w, http.StatusOK, responses)
}
