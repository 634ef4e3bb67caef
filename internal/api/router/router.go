package router

import (
	"encoding/json"
	"net/http"

	"fieldtrack/internal/api/handler"
	"fieldtrack/internal/api/middleware"
	"fieldtrack/internal/core/service"
)

func NewRouter(
	deviceService service.DeviceService,
	telemetryService service.TelemetryService,
) http.Handler {
	// Initialize handlers
	deviceHandler := handler.NewDeviceHandler(deviceService)
	telemetryHandler := handler.NewTelemetryHandler(telemetryService)
	authHandler := handler.NewAuthHandler()
	authMiddleware := middleware.NewAuthMiddleware()
	deviceAuthMiddleware := middleware.NewDeviceAuthMiddleware(deviceService)

	// Create router
	mux := http.NewServeMux()

	// Operator routes: CORS, logging, JWT.
	withMiddleware := func(handler http.Handler) http.Handler {
		return middleware.CORSMiddleware(
			middleware.LoggingMiddleware(
				authMiddleware.Authenticate(handler),
			),
		)
	}

	// Device ingest routes: CORS, logging, API-key credentials.
	withDeviceAuth := func(handler http.Handler) http.Handler {
		return middleware.CORSMiddleware(
			middleware.LoggingMiddleware(
				deviceAuthMiddleware.Authenticate(handler),
			),
		)
	}

	// Health check endpoint
	mux.Handle("/health", middleware.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})))

	mux.Handle("/auth/login", middleware.CORSMiddleware(middleware.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandler.TestLogin(w, r)
	}))))

	// Telemetry ingest - authenticated by device credentials, not JWT
	mux.Handle("/api/telemetry", withDeviceAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			telemetryHandler.Ingest(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Metrics read routes
	mux.Handle("/api/metrics/daily", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		telemetryHandler.GetDailyMetrics(w, r)
	})))

	mux.Handle("/api/metrics/vehicle", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		telemetryHandler.GetVehicleMetrics(w, r)
	})))

	mux.Handle("/api/worktimes", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		telemetryHandler.GetWorkTimes(w, r)
	})))

	mux.Handle("/api/track", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		telemetryHandler.GetTrack(w, r)
	})))

	mux.Handle("/api/telemetry/invalid", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		telemetryHandler.GetInvalidRecords(w, r)
	})))

	// Device routes with method handling
	mux.Handle("/api/devices", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			deviceHandler.Create(w, r)
		case http.MethodDelete:
			deviceHandler.Delete(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/devices/list", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deviceHandler.GetDevices(w, r)
	})))

	mux.Handle("/api/devices/get", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deviceHandler.GetDevice(w, r)
	})))

	mux.Handle("/api/devices/workwindow", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			deviceHandler.SetWorkWindow(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	return mux
}
