package server

import (
	"net/http"

	"github.com/iwvelando/finance-projection/internal/ledger"
	"github.com/iwvelando/finance-projection/pkg/adapters"
)

type postingResponse struct {
	Position ledger.Position `json:"position"`
	Applied  bool            `json:"applied"`
}

func (h *handler) handleLedgerRegister(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLedgerRegister"

	id := r.PathValue("scenario")
	var req scenarioRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if req.Name == "" {
		req.Name = id
	}

	scenario, err := adapters.OpeningScenario(req.toConfig())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	pos, err := h.ledger.Register(r.Context(), id, scenario)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, pos)
}

func (h *handler) handleLedgerPosting(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLedgerPosting"

	var posting ledger.Posting
	if !h.decodeJSON(w, r, &posting, op) {
		return
	}

	pos, applied, err := h.ledger.Apply(r.Context(), r.PathValue("scenario"), posting)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, postingResponse{Position: pos, Applied: applied})
}

func (h *handler) handleLedgerPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := h.ledger.Get(r.Context(), r.PathValue("scenario"))
	if err != nil {
		h.respondErr(w, err, "server.handleLedgerPosition")
		return
	}
	h.writeJSON(w, http.StatusOK, pos)
}
