package models

import (
	"strings"

	"github.com/jaypipes/ghw"
)

const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
	DeviceAuto = "auto"
)

// Placement is the device and numeric precision models are loaded with.
type Placement struct {
	Device      string
	ComputeType string
}

// GPU is a detected graphics card.
type GPU struct {
	Vendor  string
	Product string
}

// IsNVIDIA reports whether the card can run CUDA workloads.
func (g GPU) IsNVIDIA() bool {
	return strings.Contains(strings.ToUpper(g.Vendor), "NVIDIA")
}

// DetectGPUs lists the graphics cards visible through the PCI database.
func DetectGPUs() ([]GPU, error) {
	info, err := ghw.GPU()
	if err != nil {
		return nil, err
	}
	out := make([]GPU, 0, len(info.GraphicsCards))
	for _, card := range info.GraphicsCards {
		if card == nil || card.DeviceInfo == nil {
			continue
		}
		gpu := GPU{}
		if card.DeviceInfo.Vendor != nil {
			gpu.Vendor = card.DeviceInfo.Vendor.Name
		}
		if card.DeviceInfo.Product != nil {
			gpu.Product = card.DeviceInfo.Product.Name
		}
		out = append(out, gpu)
	}
	return out, nil
}

// HasNVIDIA reports whether any NVIDIA card is present.
func HasNVIDIA(gpus []GPU) bool {
	for _, g := range gpus {
		if g.IsNVIDIA() {
			return true
		}
	}
	return false
}

// ResolvePlacement turns the requested placement into a concrete one. Auto
// resolves to cuda when detect reports an NVIDIA card and to cpu otherwise;
// float16 on cpu becomes float32. The returned notes describe each change.
func ResolvePlacement(requested Placement, detect func() ([]GPU, error)) (Placement, []string) {
	resolved := Placement{
		Device:      strings.ToLower(strings.TrimSpace(requested.Device)),
		ComputeType: strings.ToLower(strings.TrimSpace(requested.ComputeType)),
	}
	var notes []string
	if resolved.Device == "" || resolved.Device == DeviceAuto {
		resolved.Device = DeviceCPU
		if detect != nil {
			if gpus, err := detect(); err == nil && HasNVIDIA(gpus) {
				resolved.Device = DeviceCUDA
			}
		}
		notes = append(notes, "device auto resolved to "+resolved.Device)
	}
	if resolved.ComputeType == "" {
		resolved.ComputeType = "float16"
	}
	if resolved.Device == DeviceCPU && resolved.ComputeType == "float16" {
		resolved.ComputeType = "float32"
		notes = append(notes, "float16 is not supported on cpu; using float32")
	}
	return resolved, notes
}
