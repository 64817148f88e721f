package pdu

import "math"

// Angles are carried as 10-bit fractions of a full turn
const angleUnits = 1024.0

// PackPitchBankHeading packs three angles in degrees into one word at bit
// offsets 22 (pitch), 12 (bank) and 2 (heading).
func PackPitchBankHeading(pitch, bank, heading float64) uint32 {
	p := uint32(turnFraction(pitch)*angleUnits) & 0x3FF
	b := uint32(turnFraction(bank)*angleUnits) & 0x3FF
	h := uint32(turnFraction(heading)*angleUnits) & 0x3FF
	return p<<22 | b<<12 | h<<2
}

// UnpackPitchBankHeading reverses PackPitchBankHeading. Pitch and bank are
// normalized into (-180, 180], heading into [0, 360).
func UnpackPitchBankHeading(pbh uint32) (pitch, bank, heading float64) {
	pitch = signedDegrees(float64(pbh>>22&0x3FF) / angleUnits * 360.0)
	bank = signedDegrees(float64(pbh>>12&0x3FF) / angleUnits * 360.0)
	heading = float64(pbh>>2&0x3FF) / angleUnits * 360.0
	if heading >= 360.0 {
		heading -= 360.0
	}
	return pitch, bank, heading
}

// turnFraction maps degrees onto [0, 1)
func turnFraction(deg float64) float64 {
	f := math.Mod(deg/360.0, 1.0)
	if f < 0 {
		f += 1.0
	}
	return f
}

func signedDegrees(deg float64) float64 {
	if deg > 180.0 {
		deg -= 360.0
	} else if deg <= -180.0 {
		deg += 360.0
	}
	return deg
}
