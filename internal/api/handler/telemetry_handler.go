package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"fieldtrack/internal/api/middleware"
	"fieldtrack/internal/core/model"
	"fieldtrack/internal/core/service"
)

type TelemetryHandler struct {
	telemetryService service.TelemetryService
}

func NewTelemetryHandler(telemetryService service.TelemetryService) *TelemetryHandler {
	return &TelemetryHandler{
		telemetryService: telemetryService,
	}
}

// Ingest accepts one raw device transmission. The body is the payload as
// transmitted (native record batch or JSON envelope); the device was
// already authenticated by the middleware.
func (h *TelemetryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	device, ok := r.Context().Value(middleware.DeviceContextKey).(*model.Device)
	if !ok {
		http.Error(w, "Device authentication required", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}

	result, err := h.telemetryService.ProcessRawData(r.Context(), device.ID, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *TelemetryHandler) GetDailyMetrics(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.URL.Query().Get("vehicleId")
	date := r.URL.Query().Get("date")
	if vehicleID == "" || date == "" {
		http.Error(w, "Vehicle ID and date required", http.StatusBadRequest)
		return
	}

	metrics, err := h.telemetryService.GetDailyMetrics(vehicleID, date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if metrics == nil {
		http.Error(w, "No metrics found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}

func (h *TelemetryHandler) GetVehicleMetrics(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.URL.Query().Get("vehicleId")
	if vehicleID == "" {
		http.Error(w, "Vehicle ID required", http.StatusBadRequest)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	records, err := h.telemetryService.GetVehicleMetrics(vehicleID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *TelemetryHandler) GetWorkTimes(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.URL.Query().Get("vehicleId")
	date := r.URL.Query().Get("date")
	if vehicleID == "" || date == "" {
		http.Error(w, "Vehicle ID and date required", http.StatusBadRequest)
		return
	}

	times, err := h.telemetryService.GetWorkTimes(r.Context(), vehicleID, date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(times)
}

func (h *TelemetryHandler) GetTrack(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.URL.Query().Get("vehicleId")
	date := r.URL.Query().Get("date")
	if vehicleID == "" || date == "" {
		http.Error(w, "Vehicle ID and date required", http.StatusBadRequest)
		return
	}

	track, err := h.telemetryService.GetTrack(r.Context(), vehicleID, date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if track == nil {
		track = []model.GpsPoint{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(track)
}

func (h *TelemetryHandler) GetInvalidRecords(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.telemetryService.GetInvalidRecords(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
