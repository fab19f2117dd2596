package device

import (
	"testing"

	"github.com/adverant/kreuzberg-go/internal/types"
)

func TestDetectAvailableDevicesAlwaysIncludesCPU(t *testing.T) {
	devices := DetectAvailableDevices()
	if len(devices) != 1 || devices[0].DeviceType != types.DeviceCPU {
		t.Fatalf("expected exactly one CPU device, got %+v", devices)
	}
}

func TestValidateDeviceRequestAutoResolvesToOptimal(t *testing.T) {
	d, err := ValidateDeviceRequest("auto", "tesseract", nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.DeviceType != types.DeviceCPU {
		t.Fatalf("expected CPU, got %v", d.DeviceType)
	}
}

func TestValidateDeviceRequestFallsBackToCPU(t *testing.T) {
	d, err := ValidateDeviceRequest(types.DeviceCUDA, "tesseract", nil, true)
	if err != nil {
		t.Fatalf("expected fallback to CPU, got error: %v", err)
	}
	if d.DeviceType != types.DeviceCPU {
		t.Fatalf("expected fallback device CPU, got %v", d.DeviceType)
	}
}

func TestValidateDeviceRequestErrorsWithoutFallback(t *testing.T) {
	_, err := ValidateDeviceRequest(types.DeviceCUDA, "tesseract", nil, false)
	if err == nil {
		t.Fatal("expected error when no matching device and fallback disabled")
	}
}

func TestGetRecommendedBatchSizeIsConservativeOnCPU(t *testing.T) {
	if got := GetRecommendedBatchSize(types.DeviceInfo{DeviceType: types.DeviceCPU}, 10); got != 1 {
		t.Fatalf("expected batch size 1 on CPU, got %d", got)
	}
}

func TestIsBackendGPUCompatible(t *testing.T) {
	if !IsBackendGPUCompatible("easyocr") {
		t.Fatal("expected easyocr to be GPU compatible")
	}
	if IsBackendGPUCompatible("tesseract") {
		t.Fatal("expected tesseract to not be GPU compatible")
	}
}
