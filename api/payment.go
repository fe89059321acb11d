package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/medorbit/telecare/models"
	"github.com/medorbit/telecare/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func CreatePaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.paymentService.ProcessPayment(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == models.OutcomeExisting {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

type confirmRequest struct {
	TransactionID string `json:"transaction_id"`
}

func (h *PaymentHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	paymentID := mux.Vars(r)["id"]

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	payment, err := h.paymentService.ConfirmPayment(r.Context(), paymentID, req.TransactionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	paymentID := mux.Vars(r)["id"]

	var req models.RefundPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	req.PaymentID = paymentID

	payment, err := h.paymentService.RefundPayment(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payment)
}
