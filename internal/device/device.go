// Package device implements device detection and memory-limit
// validation, a supplemented feature (SPEC_FULL §12) carried over from
// original_source/kreuzberg/_utils/_device.py. The original detects
// CUDA/MPS accelerators through torch; this engine's only OCR backend
// (internal/ocr's subprocess-driven Tesseract) is CPU-only -- the
// original itself notes "Tesseract does not [support GPU]" in
// is_backend_gpu_compatible -- and no GPU-detection library appears
// anywhere in the corpus, so CUDA/MPS enumeration is honestly reported
// as always empty rather than faked.
package device

import (
	"github.com/adverant/kreuzberg-go/internal/errors"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// DetectAvailableDevices returns every device this engine could run a
// backend on. CPU is always present; CUDA/MPS enumeration has no
// grounded implementation (see package doc) and returns none.
func DetectAvailableDevices() []types.DeviceInfo {
	return []types.DeviceInfo{{DeviceType: types.DeviceCPU, Name: "CPU"}}
}

// GetOptimalDevice returns the first available device, CPU when nothing
// else is detected.
func GetOptimalDevice() types.DeviceInfo {
	devices := DetectAvailableDevices()
	if len(devices) == 0 {
		return types.DeviceInfo{DeviceType: types.DeviceCPU, Name: "CPU"}
	}
	return devices[0]
}

// ValidateDeviceRequest mirrors validate_device_request: requested
// "auto" resolves to the optimal device; a specific request that has no
// matching available device either falls back to CPU (fallbackToCPU)
// or raises a ValidationError naming what was available.
func ValidateDeviceRequest(requested types.DeviceType, backend string, memoryLimitGB *float64, fallbackToCPU bool) (types.DeviceInfo, error) {
	available := DetectAvailableDevices()

	if requested == "auto" {
		device := GetOptimalDevice()
		if memoryLimitGB != nil {
			if err := validateMemoryLimit(device, *memoryLimitGB); err != nil {
				return types.DeviceInfo{}, err
			}
		}
		return device, nil
	}

	for _, d := range available {
		if d.DeviceType == requested {
			if memoryLimitGB != nil {
				if err := validateMemoryLimit(d, *memoryLimitGB); err != nil {
					return types.DeviceInfo{}, err
				}
			}
			return d, nil
		}
	}

	if fallbackToCPU && requested != types.DeviceCPU {
		for _, d := range available {
			if d.DeviceType == types.DeviceCPU {
				return d, nil
			}
		}
	}

	availableTypes := make([]string, 0, len(available))
	for _, d := range available {
		availableTypes = append(availableTypes, string(d.DeviceType))
	}
	return types.DeviceInfo{}, errors.NewValidationError(
		"requested device is not available for backend",
		map[string]interface{}{
			"requested_device":  string(requested),
			"backend":           backend,
			"available_devices": availableTypes,
		},
	)
}

// GetDeviceMemoryInfo returns (total, available) memory in GB, or
// (nil, nil) when unknown -- always the case here since only CPU
// devices are ever detected.
func GetDeviceMemoryInfo(d types.DeviceInfo) (total, available *float64) {
	return d.MemoryTotalGB, d.MemoryAvailableGB
}

func validateMemoryLimit(d types.DeviceInfo, memoryLimitGB float64) error {
	if d.DeviceType == types.DeviceCPU {
		return nil
	}
	total, _ := GetDeviceMemoryInfo(d)
	if total != nil && memoryLimitGB > *total {
		return errors.NewValidationError(
			"requested memory limit exceeds device capacity",
			map[string]interface{}{
				"device":           string(d.DeviceType),
				"device_name":      d.Name,
				"requested_memory": memoryLimitGB,
				"total_memory":     *total,
			},
		)
	}
	return nil
}

// IsBackendGPUCompatible reports whether backend can use a GPU device.
// Tesseract (this engine's only backend) cannot; kept as a named
// predicate so a future GPU-capable backend has a place to register.
func IsBackendGPUCompatible(backend string) bool {
	switch backend {
	case "easyocr", "paddleocr":
		return true
	default:
		return false
	}
}

// GetRecommendedBatchSize mirrors get_recommended_batch_size: CPU
// devices get a conservative batch size of 1; GPU devices without known
// available memory get a default of 4, capped at 32 otherwise.
func GetRecommendedBatchSize(d types.DeviceInfo, inputSizeMB float64) int {
	if d.DeviceType == types.DeviceCPU {
		return 1
	}

	_, available := GetDeviceMemoryInfo(d)
	if available == nil {
		return 4
	}

	usableMB := *available * 0.5 * 1024
	estimated := int(usableMB / (inputSizeMB * 4))
	if estimated < 1 {
		estimated = 1
	}
	if estimated > 32 {
		return 32
	}
	return estimated
}
