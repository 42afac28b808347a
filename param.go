package mwebctx

// Protocol parameters: fixed generator coordinates, feature bits, reserved
// key-chain indices and proof sizes. All of these are consensus values and
// must not change.

// generatorHBytes is the affine (x, y) of the Pedersen value generator H,
// big-endian 32 bytes each.
var generatorHBytes = [64]byte{
	0x50, 0x92, 0x9b, 0x74, 0xc1, 0xa0, 0x49, 0x54,
	0xb7, 0x8b, 0x4b, 0x60, 0x35, 0xe9, 0x7a, 0x5e,
	0x07, 0x8a, 0x5a, 0x0f, 0x28, 0xec, 0x96, 0xd5,
	0x47, 0xbf, 0xee, 0x9a, 0xce, 0x80, 0x3a, 0xc0,
	0x31, 0xd3, 0xc6, 0x86, 0x39, 0x73, 0x92, 0x6e,
	0x04, 0x9e, 0x63, 0x7c, 0xb1, 0xb5, 0xf4, 0x0a,
	0x36, 0xda, 0xc2, 0x8a, 0xf1, 0x76, 0x69, 0x68,
	0xc3, 0x0c, 0x23, 0x13, 0xf3, 0xa3, 0x89, 0x04,
}

// generatorJBytes is the compressed encoding of the switch-commitment
// generator J.
var generatorJBytes = [33]byte{
	0x02,
	0xb8, 0x60, 0xf5, 0x67, 0x95, 0xfc, 0x03, 0xf3,
	0xc2, 0x16, 0x85, 0x38, 0x3d, 0x1b, 0x5a, 0x2f,
	0x29, 0x54, 0xf4, 0x9b, 0x7e, 0x39, 0x8b, 0x8d,
	0x2a, 0x01, 0x93, 0x93, 0x36, 0x21, 0x15, 0x5f,
}

// baseGxGy is the affine (x, y) of the secp256k1 base point G, used as the
// DRBG seed for the range-proof generator vector.
var baseGxGy = [64]byte{
	0x79, 0xbe, 0x66, 0x7e, 0xf9, 0xdc, 0xbb, 0xac,
	0x55, 0xa0, 0x62, 0x95, 0xce, 0x87, 0x0b, 0x07,
	0x02, 0x9b, 0xfc, 0xdb, 0x2d, 0xce, 0x28, 0xd9,
	0x59, 0xf2, 0x81, 0x5b, 0x16, 0xf8, 0x17, 0x98,
	0x48, 0x3a, 0xda, 0x77, 0x26, 0xa3, 0xc4, 0x65,
	0x5d, 0xa4, 0xfb, 0xfc, 0x0e, 0x11, 0x08, 0xa8,
	0xfd, 0x17, 0xb4, 0x48, 0xa6, 0x85, 0x54, 0x19,
	0x9c, 0x47, 0xd0, 0x8f, 0xfb, 0x10, 0xd4, 0xb8,
}

// Reserved key-chain indices, drawn from the top of the u32 range.
const (
	UnknownIndex uint32 = 0xFFFFFFFF
	CustomKey    uint32 = 0xFFFFFFFE
	PeginIndex   uint32 = 0xFFFFFFFD
	ChangeIndex  uint32 = 0xFFFFFFFC
)

// firstReservedIndex is the smallest reserved index; indices below it are
// ordinary wallet addresses.
const firstReservedIndex = ChangeIndex

// Range-proof sizing.
const (
	// RangeProofSize is the fixed byte size of a 64-bit single-commitment
	// proof.
	RangeProofSize = 675

	// rangeProofBits is the bit width of the proven range.
	rangeProofBits = 64

	// innerProductOffset is the byte offset of the inner-product argument
	// within the proof: tau_x (32) + mu (32) + parity byte (1) +
	// 4 point x-coordinates (128).
	innerProductOffset = 193

	// ipAbScalars is the number of final a/b scalars carried verbatim in
	// an inner-product proof.
	ipAbScalars = 4
)

// Kernel feature bits.
const (
	KernelFeeFeatureBit           = 0x01
	KernelPeginFeatureBit         = 0x02
	KernelPegoutFeatureBit        = 0x04
	KernelHeightLockFeatureBit    = 0x08
	KernelStealthExcessFeatureBit = 0x10
	KernelExtraDataFeatureBit     = 0x20
	KernelAllFeatureBits          = 0x3F
)

// Input feature bits.
const (
	InputStealthKeyFeatureBit = 0x01
	InputExtraDataFeatureBit  = 0x02
	InputAllFeatureBits       = 0x03
)

// Output-message feature bits.
const (
	OutputMessageStandardFieldsFeatureBit = 0x01
	OutputMessageExtraDataFeatureBit      = 0x02
	OutputMessageAllFeatureBits           = 0x03
)

// Outer Litecoin transaction flag bits.
const (
	txFlagWitness = 0x01
	txFlagMweb    = 0x08
)
