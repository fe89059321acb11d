package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/medorbit/telecare/models"
	"github.com/medorbit/telecare/services"
)

type AppointmentHandler struct {
	appointmentService *services.AppointmentService
}

func CreateAppointmentHandler(appointmentService *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentService: appointmentService,
	}
}

func (h *AppointmentHandler) HandleBook(w http.ResponseWriter, r *http.Request) {
	var req models.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	appointment, err := h.appointmentService.BookAtomic(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appointment)
}

func (h *AppointmentHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	appointmentID := mux.Vars(r)["id"]

	var req models.UpdateAppointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	req.AppointmentID = appointmentID

	appointment, err := h.appointmentService.UpdateStatusAtomic(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, appointment)
}

func (h *AppointmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	appointmentID := mux.Vars(r)["id"]

	appointment, err := h.appointmentService.Get(r.Context(), appointmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, appointment)
}
