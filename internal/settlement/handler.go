package settlement

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/pkg/response"
)

// BalanceResponse represents one person's net position on the wire.
type BalanceResponse struct {
	Name      string  `json:"name"`
	TotalPaid float64 `json:"total_paid"`
	FairShare float64 `json:"fair_share"`
	Balance   float64 `json:"balance"`
}

// SettlementResponse represents one recommended payment on the wire.
type SettlementResponse struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Handler handles HTTP requests for balance and settlement computation.
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// BalanceRoutes returns the router for the balances endpoint.
func (h *Handler) BalanceRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetBalances)
	return r
}

// Routes returns the router for the settlements endpoint.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetSettlements)
	return r
}

// GetBalances handles GET /balances
// @Summary      Get current balances
// @Description  Compute every person's total paid, fair share, and net balance
// @Tags         settlements
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]BalanceResponse}
// @Router       /balances [get]
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.Balances(r.Context())
	if err != nil {
		slog.Error("failed to compute balances", "error", err)
		response.InternalError(w, "Failed to calculate balances")
		return
	}

	responses := make([]*BalanceResponse, len(balances))
	for i, b := range balances {
		responses[i] = &BalanceResponse{
			Name:      b.Name,
			TotalPaid: b.TotalPaid.InexactFloat64(),
			FairShare: b.FairShare.InexactFloat64(),
			Balance:   b.Balance.InexactFloat64(),
		}
	}

	response.JSON(w, http.StatusOK, responses)
}

// GetSettlements handles GET /settlements
// @Summary      Get optimal settlements
// @Description  Compute a minimal ordered list of payments that zeroes out all balances
// @Tags         settlements
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements [get]
func (h *Handler) GetSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.service.Settlements(r.Context())
	if err != nil {
		slog.Error("failed to compute settlements", "error", err)
		response.InternalError(w, "Failed to calculate settlements")
		return
	}

	responses := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		responses[i] = &SettlementResponse{
			From:   s.From,
			To:     s.To,
			Amount: s.Amount.InexactFloat64(),
		}
	}

	response.JSON(w, http.StatusOK, responses)
}
