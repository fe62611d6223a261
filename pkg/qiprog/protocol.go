package qiprog

import "fmt"

// QiProg control request codes. Every operation is its own request; there is
// deliberately no generic "read N bytes" request, so each width is validated
// and transferred independently.
const (
	ReqGetCapabilities = 0x00
	ReqSetBus          = 0x01
	ReqSetClock        = 0x02
	ReqReadDeviceID    = 0x03
	ReqSetAddress      = 0x04
	ReqSetEraseSize    = 0x05
	ReqSetEraseCommand = 0x06
	ReqSetWriteCommand = 0x07
	ReqSetSPITiming    = 0x20
	ReqRead8           = 0x30
	ReqRead16          = 0x31
	ReqRead32          = 0x32
	ReqWrite8          = 0x33
	ReqWrite16         = 0x34
	ReqWrite32         = 0x35
	ReqSetVDD          = 0xf0
)

// Wire sizes of the fixed protocol structures. The structures are packed on
// the wire; host-side struct layout never leaks into a transfer.
const (
	// instruction_set u16 + bus_master u32 + max_direct_data u32 +
	// voltages [10]u16
	capabilitiesWireSize = 2 + 4 + 4 + 2*NumVoltages

	// id_method u8 + vendor u16 + device u32
	chipIDWireSize  = 1 + 2 + 4
	chipIDsWireSize = NumChipIDs * chipIDWireSize

	// start u32 + end u32
	addressRangeWireSize = 8
)

// Request is one QiProg operation encoded as the header of a control
// transfer: direction, request code and the two 16-bit setup fields. The
// payload, if any, travels separately in wire byte order.
type Request struct {
	In    bool // device-to-host when true
	Code  uint8
	Value uint16
	Index uint16
}

// CapabilitiesRequest fetches the capability report. No address argument;
// the reply is one fixed-size structure.
func CapabilitiesRequest() Request {
	return Request{In: true, Code: ReqGetCapabilities}
}

// ChipIDRequest fetches all identification slots in one transfer.
func ChipIDRequest() Request {
	return Request{In: true, Code: ReqReadDeviceID}
}

// SetBusRequest selects a chip-access bus. The 32-bit selector is carried in
// the setup fields, upper half in wValue, lower half in wIndex.
func SetBusRequest(bus Bus) Request {
	hi, lo := SplitAddr(uint32(bus))
	return Request{Code: ReqSetBus, Value: hi, Index: lo}
}

// SetAddressRequest announces an 8-byte address-range payload.
func SetAddressRequest() Request {
	return Request{Code: ReqSetAddress}
}

// Read8Request reads one byte at addr.
func Read8Request(addr uint32) Request {
	hi, lo := SplitAddr(addr)
	return Request{In: true, Code: ReqRead8, Value: hi, Index: lo}
}

// Read16Request reads one 16-bit word at addr.
func Read16Request(addr uint32) Request {
	hi, lo := SplitAddr(addr)
	return Request{In: true, Code: ReqRead16, Value: hi, Index: lo}
}

// Read32Request reads one 32-bit word at addr.
func Read32Request(addr uint32) Request {
	hi, lo := SplitAddr(addr)
	return Request{In: true, Code: ReqRead32, Value: hi, Index: lo}
}

// Write8Request writes one byte at addr.
func Write8Request(addr uint32) Request {
	hi, lo := SplitAddr(addr)
	return Request{Code: ReqWrite8, Value: hi, Index: lo}
}

// Write16Request writes one 16-bit word at addr.
func Write16Request(addr uint32) Request {
	hi, lo := SplitAddr(addr)
	return Request{Code: ReqWrite16, Value: hi, Index: lo}
}

// Write32Request writes one 32-bit word at addr.
func Write32Request(addr uint32) Request {
	hi, lo := SplitAddr(addr)
	return Request{Code: ReqWrite32, Value: hi, Index: lo}
}

// MarshalCapabilities encodes a capability report in wire order.
func MarshalCapabilities(c Capabilities) []byte {
	buf := make([]byte, capabilitiesWireSize)
	PutLE16(buf[0:], uint16(c.InstructionSet))
	PutLE32(buf[2:], uint32(c.BusMaster))
	PutLE32(buf[6:], c.MaxDirectData)
	for i, v := range c.Voltages {
		PutLE16(buf[10+2*i:], v)
	}
	return buf
}

// UnmarshalCapabilities decodes a capability report from its wire image.
func UnmarshalCapabilities(buf []byte) (Capabilities, error) {
	if len(buf) != capabilitiesWireSize {
		return Capabilities{}, fmt.Errorf("%w: capabilities: got %d bytes, want %d",
			ErrTransfer, len(buf), capabilitiesWireSize)
	}
	c := Capabilities{
		InstructionSet: InstructionSet(GetLE16(buf[0:])),
		BusMaster:      Bus(GetLE32(buf[2:])),
		MaxDirectData:  GetLE32(buf[6:]),
	}
	for i := range c.Voltages {
		c.Voltages[i] = GetLE16(buf[10+2*i:])
	}
	return c, nil
}

// MarshalChipIDs encodes all identification slots in wire order.
func MarshalChipIDs(ids [NumChipIDs]ChipID) []byte {
	buf := make([]byte, chipIDsWireSize)
	for i, id := range ids {
		off := i * chipIDWireSize
		buf[off] = byte(id.Method)
		PutLE16(buf[off+1:], id.Vendor)
		PutLE32(buf[off+3:], id.Device)
	}
	return buf
}

// UnmarshalChipIDs decodes all identification slots, populated or not.
func UnmarshalChipIDs(buf []byte) ([NumChipIDs]ChipID, error) {
	var ids [NumChipIDs]ChipID
	if len(buf) != chipIDsWireSize {
		return ids, fmt.Errorf("%w: chip ids: got %d bytes, want %d",
			ErrTransfer, len(buf), chipIDsWireSize)
	}
	for i := range ids {
		off := i * chipIDWireSize
		ids[i] = ChipID{
			Method: IDMethod(buf[off]),
			Vendor: GetLE16(buf[off+1:]),
			Device: GetLE32(buf[off+3:]),
		}
	}
	return ids, nil
}

// MarshalAddressRange encodes the start/end window pair in wire order.
func MarshalAddressRange(start, end uint32) []byte {
	buf := make([]byte, addressRangeWireSize)
	PutLE32(buf[0:], start)
	PutLE32(buf[4:], end)
	return buf
}

// UnmarshalAddressRange decodes a start/end window pair.
func UnmarshalAddressRange(buf []byte) (start, end uint32, err error) {
	if len(buf) != addressRangeWireSize {
		return 0, 0, fmt.Errorf("%w: address range: got %d bytes, want %d",
			ErrTransfer, len(buf), addressRangeWireSize)
	}
	return GetLE32(buf[0:]), GetLE32(buf[4:]), nil
}
