package service

import (
	"context"
	"errors"
	"log"

	"fieldtrack/internal/cache"
	"fieldtrack/internal/core/model"
	"fieldtrack/internal/core/repository"
)

type DeviceService interface {
	CreateDevice(name, imei, vehicleID, farmID string) (*model.Device, error)
	UpdateDevice(device *model.Device) error
	DeleteDevice(id string) error
	GetDevice(id string) (*model.Device, error)
	GetDeviceByIMEI(imei string) (*model.Device, error)
	GetAllDevices() ([]*model.Device, error)
	SetWorkWindow(deviceID string, window *model.WorkWindow) error
}

type deviceService struct {
	deviceRepo repository.DeviceRepository
	stateCache *cache.StateCache
}

func NewDeviceService(deviceRepo repository.DeviceRepository, stateCache *cache.StateCache) DeviceService {
	return &deviceService{
		deviceRepo: deviceRepo,
		stateCache: stateCache,
	}
}

func (s *deviceService) CreateDevice(name, imei, vehicleID, farmID string) (*model.Device, error) {
	if name == "" || imei == "" || vehicleID == "" {
		return nil, errors.New("invalid device data")
	}

	existing, err := s.deviceRepo.FindByIMEI(imei)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("device with this IMEI already exists")
	}

	device := model.NewDevice(name, imei, vehicleID)
	device.FarmID = farmID
	if err := s.deviceRepo.Create(device); err != nil {
		return nil, err
	}
	return device, nil
}

func (s *deviceService) UpdateDevice(device *model.Device) error {
	if device.ID == "" {
		return errors.New("invalid device ID")
	}
	return s.deviceRepo.Update(device)
}

func (s *deviceService) DeleteDevice(id string) error {
	if id == "" {
		return errors.New("invalid device ID")
	}
	return s.deviceRepo.Delete(id)
}

func (s *deviceService) GetDevice(id string) (*model.Device, error) {
	if id == "" {
		return nil, errors.New("invalid device ID")
	}
	return s.deviceRepo.FindByID(id)
}

func (s *deviceService) GetDeviceByIMEI(imei string) (*model.Device, error) {
	if imei == "" {
		return nil, errors.New("invalid IMEI")
	}
	return s.deviceRepo.FindByIMEI(imei)
}

func (s *deviceService) GetAllDevices() ([]*model.Device, error) {
	return s.deviceRepo.FindAll()
}

// SetWorkWindow changes the vehicle's daily work window and drops the
// trailing week of cached analysis state, since window-dependent landmarks
// computed under the old window are no longer valid.
func (s *deviceService) SetWorkWindow(deviceID string, window *model.WorkWindow) error {
	device, err := s.deviceRepo.FindByID(deviceID)
	if err != nil {
		return err
	}
	if device == nil {
		return errors.New("device not found")
	}

	device.WorkWindow = window
	if err := s.deviceRepo.Update(device); err != nil {
		return err
	}

	if s.stateCache != nil {
		if err := s.stateCache.InvalidateForVehicle(context.Background(), device.VehicleID); err != nil {
			log.Printf("State invalidation failed for vehicle %s: %v", device.VehicleID, err)
		}
	}
	return nil
}
