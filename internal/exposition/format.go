package exposition

import (
	"fmt"

	"github.com/TheChilliPL/docker-io-reporter/internal/cgroup"
)

const (
	IOStatPrefix     = "docker_iostat_"
	IOPressurePrefix = "docker_iopressure_"

	LabelDevice    = "device"
	LabelType      = "type"
	LabelContainer = "container"
)

type DeviceResolver interface {
	Resolve(majorMinor string) (string, error)
}

type Formatter struct {
	devices DeviceResolver
}

func NewFormatter(devices DeviceResolver) *Formatter {
	return &Formatter{
		devices: devices,
	}
}

// FormatIOStat renders one line per io.stat entry. The device of each record
// is resolved once; a resolution failure aborts the rendering.
func (f *Formatter) FormatIOStat(buf *Buffer, container string, records []cgroup.IOStatRecord) error {
	for _, record := range records {
		deviceName, err := f.devices.Resolve(record.Device)
		if err != nil {
			return fmt.Errorf("failed to resolve device %s: %w", record.Device, err)
		}

		labels := []Label{
			{Name: LabelDevice, Value: deviceName},
			{Name: LabelContainer, Value: container},
		}
		for _, entry := range record.Entries {
			buf.Append(IOStatPrefix+entry.Key, labels, entry.Value)
		}
	}

	return nil
}

func (f *Formatter) FormatIOPressure(buf *Buffer, container string, records []cgroup.IOPressureRecord) {
	for _, record := range records {
		labels := []Label{
			{Name: LabelType, Value: record.Type},
			{Name: LabelContainer, Value: container},
		}
		for _, entry := range record.Entries {
			buf.Append(IOPressurePrefix+entry.Key, labels, entry.Value)
		}
	}
}
