package api

import (
	"github.com/gorilla/mux"

	"github.com/medorbit/telecare/middleware"
)

// CreateRouter mounts the workflow endpoints. The health endpoint skips the
// rate limiter so probes keep working while the API sheds load.
func CreateRouter(
	payments *PaymentHandler,
	appointments *AppointmentHandler,
	health *HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.CorrelationMiddleware)
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/health", health.HandleHealth).Methods("GET")

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(middleware.RateLimitMiddleware)

	v1.HandleFunc("/payments", payments.HandleProcess).Methods("POST")
	v1.HandleFunc("/payments/{id}/confirm", payments.HandleConfirm).Methods("POST")
	v1.HandleFunc("/payments/{id}/refund", payments.HandleRefund).Methods("POST")

	v1.HandleFunc("/appointments", appointments.HandleBook).Methods("POST")
	v1.HandleFunc("/appointments/{id}", appointments.HandleGet).Methods("GET")
	v1.HandleFunc("/appointments/{id}/status", appointments.HandleUpdateStatus).Methods("POST")

	return router
}
