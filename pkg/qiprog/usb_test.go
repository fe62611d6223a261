package qiprog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/gousb"
)

func TestIsProgrammerFilter(t *testing.T) {
	tests := []struct {
		name string
		vid  uint16
		pid  uint16
		want bool
	}{
		{"exact match", 0x1d50, 0x6076, true},
		{"wrong product", 0x1d50, 0x6077, false},
		{"wrong vendor", 0x1d51, 0x6076, false},
		{"both wrong", 0x0000, 0x0000, false},
		{"swapped", 0x6076, 0x1d50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := &gousb.DeviceDesc{
				Vendor:  gousb.ID(tt.vid),
				Product: gousb.ID(tt.pid),
			}
			if got := isProgrammer(desc); got != tt.want {
				t.Errorf("isProgrammer(%04x:%04x) = %v, want %v", tt.vid, tt.pid, got, tt.want)
			}
		})
	}
}

// openSimBacked wires a simulator behind the USB driver's control-transfer
// boundary, as if Open had already claimed the device.
func openSimBacked(sim *SimDevice) (*USBDriver, *Device) {
	drv := NewUSBDriver()
	return drv, newDevice(drv, &usbPriv{bus: sim})
}

func TestUSBCapabilitiesTransfer(t *testing.T) {
	sim := NewSimDevice(0)
	sim.Caps.Voltages = [NumVoltages]uint16{0, 0, 0, 12, 0, 0, 0, 0, 0, 0}

	_, dev := openSimBacked(sim)

	caps, err := dev.Capabilities()
	if err != nil {
		t.Fatalf("Capabilities() error = %v", err)
	}
	if caps.Voltages != sim.Caps.Voltages {
		t.Errorf("Voltages = %v, want %v", caps.Voltages, sim.Caps.Voltages)
	}

	rec, ok := sim.LastControl()
	if !ok {
		t.Fatal("no transfer recorded")
	}
	if rec.RType != ctrlIn || rec.Code != ReqGetCapabilities || rec.Value != 0 || rec.Index != 0 {
		t.Errorf("transfer = %+v", rec)
	}
	if len(rec.Payload) != capabilitiesWireSize {
		t.Errorf("payload length = %d, want %d", len(rec.Payload), capabilitiesWireSize)
	}
}

func TestUSBChipIDTransfer(t *testing.T) {
	sim := NewSimDevice(0)
	sim.IDs = [NumChipIDs]ChipID{}
	sim.IDs[0] = ChipID{Method: IDMethodJEDEC, Vendor: 0x00BF, Device: 0x0000234B}

	_, dev := openSimBacked(sim)

	ids, err := dev.ChipIDs()
	if err != nil {
		t.Fatalf("ChipIDs() error = %v", err)
	}
	if ids != sim.IDs {
		t.Errorf("ChipIDs() = %+v, want %+v", ids, sim.IDs)
	}

	rec, _ := sim.LastControl()
	if rec.RType != ctrlIn || rec.Code != ReqReadDeviceID {
		t.Errorf("transfer = %+v", rec)
	}
}

func TestUSBSetBusTransfer(t *testing.T) {
	sim := NewSimDevice(0)
	_, dev := openSimBacked(sim)

	if err := dev.SetBus(BusFWH); err != nil {
		t.Fatalf("SetBus() error = %v", err)
	}
	if sim.SelectedBus() != BusFWH {
		t.Errorf("selected bus = %v, want %v", sim.SelectedBus(), BusFWH)
	}

	rec, _ := sim.LastControl()
	if rec.RType != ctrlOut || rec.Code != ReqSetBus || len(rec.Payload) != 0 {
		t.Errorf("transfer = %+v", rec)
	}
	// Selector travels split across the setup fields, high half in wValue.
	if rec.Value != 0x0000 || rec.Index != 0x0004 {
		t.Errorf("selector fields = (%#04x, %#04x), want (0x0000, 0x0004)", rec.Value, rec.Index)
	}
}

func TestUSBSetBusZeroSelector(t *testing.T) {
	sim := NewSimDevice(0)
	_, dev := openSimBacked(sim)

	if err := dev.SetBus(0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetBus(0) error = %v, want ErrInvalidArgument", err)
	}
	if len(sim.Records()) != 0 {
		t.Error("SetBus(0) reached the transport")
	}
}

func TestUSBSetAddressTransfer(t *testing.T) {
	sim := NewSimDevice(0)
	_, dev := openSimBacked(sim)

	if err := dev.SetAddress(0xFFF80000, 0xFFFFFFFF); err != nil {
		t.Fatalf("SetAddress() error = %v", err)
	}

	start, end, ok := sim.AddressRange()
	if !ok || start != 0xFFF80000 || end != 0xFFFFFFFF {
		t.Errorf("device window = (%#08x, %#08x, %v)", start, end, ok)
	}

	rec, _ := sim.LastControl()
	want := []byte{0x00, 0x00, 0xF8, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	if rec.RType != ctrlOut || rec.Code != ReqSetAddress || !bytes.Equal(rec.Payload, want) {
		t.Errorf("transfer = %+v, want payload % x", rec, want)
	}
}

func TestUSBReadWriteWidths(t *testing.T) {
	sim := NewSimDevice(0x100)
	_, dev := openSimBacked(sim)

	if err := dev.Write8(0x10, 0xA5); err != nil {
		t.Fatalf("Write8() error = %v", err)
	}
	if err := dev.Write16(0x20, 0x1234); err != nil {
		t.Fatalf("Write16() error = %v", err)
	}
	if err := dev.Write32(0x30, 0xCAFEBABE); err != nil {
		t.Fatalf("Write32() error = %v", err)
	}

	// Payloads are exactly as wide as the request and little-endian.
	recs := sim.Records()
	if !bytes.Equal(recs[0].Payload, []byte{0xA5}) {
		t.Errorf("write8 payload = % x", recs[0].Payload)
	}
	if !bytes.Equal(recs[1].Payload, []byte{0x34, 0x12}) {
		t.Errorf("write16 payload = % x", recs[1].Payload)
	}
	if !bytes.Equal(recs[2].Payload, []byte{0xBE, 0xBA, 0xFE, 0xCA}) {
		t.Errorf("write32 payload = % x", recs[2].Payload)
	}

	if v, err := dev.Read8(0x10); err != nil || v != 0xA5 {
		t.Errorf("Read8() = (%#02x, %v)", v, err)
	}
	if v, err := dev.Read16(0x20); err != nil || v != 0x1234 {
		t.Errorf("Read16() = (%#04x, %v)", v, err)
	}
	if v, err := dev.Read32(0x30); err != nil || v != 0xCAFEBABE {
		t.Errorf("Read32() = (%#08x, %v)", v, err)
	}
}

func TestUSBAddressSplitOnWire(t *testing.T) {
	sim := NewSimDevice(0)
	var got ControlRecord
	sim.OnControl = func(rType, request uint8, val, idx uint16, data []byte) (int, error) {
		got = ControlRecord{RType: rType, Code: request, Value: val, Index: idx}
		return len(data), nil
	}
	_, dev := openSimBacked(sim)

	if _, err := dev.Read32(0xFFFC0010); err != nil {
		t.Fatalf("Read32() error = %v", err)
	}
	if got.Value != 0xFFFC || got.Index != 0x0010 {
		t.Errorf("address fields = (%#04x, %#04x), want (0xFFFC, 0x0010)", got.Value, got.Index)
	}
}

func TestUSBShortTransfer(t *testing.T) {
	sim := NewSimDevice(0)
	sim.OnControl = func(rType, request uint8, val, idx uint16, data []byte) (int, error) {
		return len(data) - 1, nil
	}
	_, dev := openSimBacked(sim)

	if _, err := dev.Read32(0); !errors.Is(err, ErrTransfer) {
		t.Errorf("short read error = %v, want ErrTransfer", err)
	}
	if _, err := dev.Capabilities(); !errors.Is(err, ErrTransfer) {
		t.Errorf("short capabilities error = %v, want ErrTransfer", err)
	}
}

func TestUSBTransferFailure(t *testing.T) {
	sim := NewSimDevice(0)
	sim.OnControl = func(rType, request uint8, val, idx uint16, data []byte) (int, error) {
		return 0, errors.New("pipe stalled")
	}
	_, dev := openSimBacked(sim)

	if err := dev.Write8(0, 0xFF); !errors.Is(err, ErrTransfer) {
		t.Errorf("Write8() error = %v, want ErrTransfer", err)
	}
	if _, err := dev.ChipIDs(); !errors.Is(err, ErrTransfer) {
		t.Errorf("ChipIDs() error = %v, want ErrTransfer", err)
	}
}

func TestUSBUnopenedDevice(t *testing.T) {
	drv := NewUSBDriver()
	dev := newDevice(drv, &usbPriv{})

	if _, err := dev.Capabilities(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Capabilities() on unopened device error = %v, want ErrInvalidArgument", err)
	}
	if err := dev.Write32(0, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Write32() on unopened device error = %v, want ErrInvalidArgument", err)
	}
}

func TestUSBForeignPrivateState(t *testing.T) {
	drv := NewUSBDriver()
	dev := newDevice(drv, &simPriv{sim: NewSimDevice(0), open: true})

	if _, err := dev.Read8(0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Read8() with foreign state error = %v, want ErrInvalidArgument", err)
	}
}
