package middleware

import (
	"context"
	"net/http"

	"fieldtrack/internal/core/service"
)

// DeviceContextKey holds the authenticated device on the request.
const DeviceContextKey contextKey = "device"

type DeviceAuthMiddleware struct {
	deviceService service.DeviceService
}

func NewDeviceAuthMiddleware(deviceService service.DeviceService) *DeviceAuthMiddleware {
	return &DeviceAuthMiddleware{
		deviceService: deviceService,
	}
}

// Authenticate verifies the device API credentials on an ingest request.
// Devices identify themselves by IMEI or internal ID in the deviceId
// parameter.
func (m *DeviceAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-Device-API-Key")
		apiSecret := r.Header.Get("X-Device-API-Secret")

		if apiKey == "" || apiSecret == "" {
			http.Error(w, "Device authentication required", http.StatusUnauthorized)
			return
		}

		deviceID := r.URL.Query().Get("deviceId")
		if deviceID == "" {
			deviceID = r.URL.Query().Get("id")
		}
		if deviceID == "" {
			http.Error(w, "Device ID required", http.StatusBadRequest)
			return
		}

		device, err := m.deviceService.GetDevice(deviceID)
		if err != nil {
			http.Error(w, "Error verifying device credentials", http.StatusInternalServerError)
			return
		}
		if device == nil {
			device, err = m.deviceService.GetDeviceByIMEI(deviceID)
			if err != nil {
				http.Error(w, "Error verifying device credentials", http.StatusInternalServerError)
				return
			}
		}
		if device == nil {
			http.Error(w, "Device not found", http.StatusNotFound)
			return
		}

		if !device.ValidateCredentials(apiKey, apiSecret) {
			http.Error(w, "Invalid device credentials", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), DeviceContextKey, device)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
