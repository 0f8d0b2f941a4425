package glpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestResolveCPUWithFrequency(t *testing.T) {
	comp := &Computer{
		CPUItems: []ItemProcessor{
			{Designation: "Intel Core i5-1135G7", Frequency: 2400},
			{Designation: "ignored second socket", Frequency: 2400},
		},
	}
	record := Resolve(comp)
	assert.Equal(t, "Intel Core i5-1135G7 @ 2400 Mhz", record.CPU)
}

func TestResolveCPUMissing(t *testing.T) {
	record := Resolve(&Computer{})
	assert.Equal(t, "Unknown Processor", record.CPU)

	record = Resolve(&Computer{CPUItems: []ItemProcessor{{Frequency: 1800}}})
	assert.Equal(t, "Unknown CPU @ 1800 Mhz", record.CPU)
}

func TestResolveRAMSumsUnits(t *testing.T) {
	comp := &Computer{
		Memory:      intPtr(4096), // Ignored while itemized units exist
		MemoryItems: []ItemMemory{{Size: 8192}, {Size: 8192}},
	}
	record := Resolve(comp)
	assert.Equal(t, "16384 MB", record.RAM)
}

func TestResolveRAMAggregateFallback(t *testing.T) {
	record := Resolve(&Computer{Memory: intPtr(4096)})
	assert.Equal(t, "4096 MB", record.RAM)

	record = Resolve(&Computer{})
	assert.Equal(t, "0 MB", record.RAM)
}

func TestResolveStorageUnits(t *testing.T) {
	comp := &Computer{
		DiskItems: []ItemHardDrive{
			{Designation: "Samsung SSD 970", Capacity: 512000},
			{Designation: "", Capacity: 500},
		},
	}
	record := Resolve(comp)
	assert.Equal(t, "Samsung SSD 970 (500 GB), Disk (500 MB)", record.Storage)
}

func TestResolveStorageMissing(t *testing.T) {
	record := Resolve(&Computer{})
	assert.Equal(t, "No Storage", record.Storage)
}

func TestResolveOSFallbacks(t *testing.T) {
	comp := &Computer{
		OSItems: []ItemOperatingSystem{{
			Name:            "item level name",
			OperatingSystem: &OperatingSystem{Name: "Ubuntu 22.04"},
		}},
	}
	assert.Equal(t, "Ubuntu 22.04", Resolve(comp).OS)

	comp = &Computer{OSItems: []ItemOperatingSystem{{Name: "Windows 11 Pro"}}}
	assert.Equal(t, "Windows 11 Pro", Resolve(comp).OS)

	comp = &Computer{OSItems: []ItemOperatingSystem{{}}}
	assert.Equal(t, "Unknown OS", Resolve(comp).OS)

	assert.Equal(t, "Unknown OS", Resolve(&Computer{}).OS)
}

func TestResolveManufacturerAndModelDefaults(t *testing.T) {
	record := Resolve(&Computer{})
	assert.Equal(t, "Unknown", record.Manufacturer)
	assert.Equal(t, "Unknown", record.Model)

	record = Resolve(&Computer{
		Manufacturer: &Manufacturer{Name: "Dell Inc."},
		Model:        &ComputerModel{Name: "Latitude 5420"},
	})
	assert.Equal(t, "Dell Inc.", record.Manufacturer)
	assert.Equal(t, "Latitude 5420", record.Model)
}

func TestResolveTrimsOtherSerial(t *testing.T) {
	record := Resolve(&Computer{OtherSerial: "  AST-2024-00042  "})
	assert.Equal(t, "AST-2024-00042", record.OtherSerial)
}
