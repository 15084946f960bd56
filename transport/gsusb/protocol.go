package gsusb

// Wire-level constants for the gs_usb / candleLight USB-CAN control
// protocol, as implemented by the Linux gs_usb kernel driver and the
// candleLight/CANable firmware family. These are standard across every
// compatible device and are not specific to any one vendor.
const (
	// breqHostFormat etc. are the bRequest values used in control transfers.
	breqHostFormat     = 0
	breqBitTiming      = 1
	breqMode           = 2
	breqBerr           = 3
	breqBtConst        = 4
	breqDeviceConfig   = 5
	breqTimestamp      = 6
	breqIdentify       = 7

	// gsCanModeReset/Start are the values written to struct gs_device_mode.mode.
	gsCanModeReset = 0
	gsCanModeStart = 1

	// Device capability / start-mode feature flags (struct
	// gs_device_mode.flags and struct gs_device_bt_const.feature).
	gsCanModeNormal                  = 0
	gsCanModeListenOnly       uint32 = 1 << 0
	gsCanModeLoopBack         uint32 = 1 << 1
	gsCanModeTripleSample     uint32 = 1 << 2
	gsCanModeOneShot          uint32 = 1 << 3
	gsCanModeHwTimestamp      uint32 = 1 << 4
	gsCanModePadPktsToMaxSize uint32 = 1 << 7

	// echoIDNone marks both a TX frame that requests no echo and, on
	// receive, a genuine bus frame (as opposed to a TX-completion echo).
	echoIDNone uint32 = 0xFFFFFFFF

	// CAN id flag bits shared with the kernel's <linux/can.h> definitions.
	canEFFFlag uint32 = 0x80000000
	canRTRFlag uint32 = 0x40000000
	canErrFlag uint32 = 0x20000000
	canSFFMask uint32 = 0x000007FF
	canEFFMask uint32 = 0x1FFFFFFF

	// frameSizeNoTimestamp/WithTimestamp are the fixed wire sizes of a
	// struct gs_host_frame, with and without the trailing 32-bit hardware
	// timestamp field negotiated via gsCanModeHwTimestamp.
	frameSizeNoTimestamp   = 20
	frameSizeWithTimestamp = 24

	// bulk transfer size limits.
	controlTransferTimeoutMs = 1000
	bulkTransferTimeoutMs    = 1000
	maxBatchBytes            = 4096
)

// knownVendorProducts is the allowlist of (vendor, product) USB id pairs
// known to speak the gs_usb protocol: candleLight, CANable, and their
// common clones.
var knownVendorProducts = [][2]uint16{
	{0x1D50, 0x606F}, // candleLight
	{0x1209, 0x2323}, // canable fw candleLight clone
	{0x1CD2, 0x606F}, // canable
	{0x16D0, 0x10B8}, // CANtact clones
}

func isKnownDevice(vendor, product uint16) bool {
	for _, vp := range knownVendorProducts {
		if vp[0] == vendor && vp[1] == product {
			return true
		}
	}
	return false
}
