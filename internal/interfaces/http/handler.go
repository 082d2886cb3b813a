package httpinterface

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/paystell/paystell-daemon/internal/core/application"
	"github.com/paystell/paystell-daemon/internal/core/application/pubsub"
	log "github.com/sirupsen/logrus"
)

const maxBodySize = 1 << 20

type handler struct {
	depositSvc     application.DepositService
	monitoringSvc  application.MonitoringService
	transactionSvc application.TransactionService
	monitor        application.TransactionMonitor
	pubsubSvc      *pubsub.Service
}

func (h *handler) createDeposit(w http.ResponseWriter, r *http.Request) {
	var req createDepositRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	deposit, err := h.depositSvc.CreateDeposit(
		r.Context(), requesterFrom(r.Context()), req.toApp(),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, depositResponse{deposit})
}

func (h *handler) listDeposits(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	deposits, err := h.depositSvc.ListDeposits(
		r.Context(), requesterFrom(r.Context()), application.ListDepositsReq{
			UserID: query.Get("userId"),
			Status: query.Get("status"),
		},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listDepositsResponse{deposits, len(deposits)})
}

func (h *handler) getDeposit(w http.ResponseWriter, r *http.Request) {
	deposit, err := h.depositSvc.GetDeposit(
		r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "id"),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, depositResponse{deposit})
}

func (h *handler) updateDeposit(w http.ResponseWriter, r *http.Request) {
	var req updateDepositRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	deposit, err := h.depositSvc.UpdateDeposit(
		r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "id"),
		req.toApp(),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, depositResponse{deposit})
}

func (h *handler) deleteDeposit(w http.ResponseWriter, r *http.Request) {
	if err := h.depositSvc.DeleteDeposit(
		r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "id"),
	); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) startMonitoring(w http.ResponseWriter, r *http.Request) {
	var req startMonitoringRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	config, err := h.monitoringSvc.StartMonitoring(
		r.Context(), requesterFrom(r.Context()), req.toApp(),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, monitoringResponse{config})
}

func (h *handler) listMonitoring(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	configs, err := h.monitoringSvc.ListMonitoring(
		r.Context(), requesterFrom(r.Context()),
		query.Get("address"), query.Get("asset"),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listMonitoringResponse{configs, len(configs)})
}

func (h *handler) stopMonitoring(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if err := h.monitoringSvc.StopMonitoring(
		r.Context(), requesterFrom(r.Context()),
		query.Get("address"), query.Get("asset"),
	); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) submitTransaction(w http.ResponseWriter, r *http.Request) {
	var req submitTransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.transactionSvc.SubmitTransaction(
		r.Context(), requesterFrom(r.Context()), req.toApp(),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, transactionResponse{tx})
}

func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactionSvc.ListTransactions(
		r.Context(), requesterFrom(r.Context()), r.URL.Query().Get("status"),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listTransactionsResponse{txs, len(txs)})
}

func (h *handler) monitorView(w http.ResponseWriter, r *http.Request) {
	view, err := h.monitor.View(r.Context(), requesterFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) addWebhook(w http.ResponseWriter, r *http.Request) {
	var req addWebhookRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.pubsubSvc.AddWebhook(r.Context(), application.Webhook{
		OwnerID:  requesterFrom(r.Context()).UserID,
		Topic:    req.Topic,
		Endpoint: req.Endpoint,
		Secret:   req.Secret,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, webhookResponse{
		ID:        id,
		Topic:     req.Topic,
		Endpoint:  req.Endpoint,
		IsSecured: len(req.Secret) > 0,
	})
}

func (h *handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.pubsubSvc.ListWebhooks(
		r.Context(), requesterFrom(r.Context()).UserID,
		r.URL.Query().Get("topic"),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list := toWebhookResponses(hooks)
	writeJSON(w, http.StatusOK, listWebhooksResponse{list, len(list)})
}

func (h *handler) removeWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.pubsubSvc.RemoveWebhook(
		r.Context(), requesterFrom(r.Context()).UserID, chi.URLParam(r, "id"),
	); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{"ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.WithError(err).Debug("failed to decode request body")
		return errInvalidBody
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}
