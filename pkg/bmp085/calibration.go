package bmp085

//Calibration holds the eleven factory coefficients stored in the device
//EEPROM. It is read once by Initialize and never changes afterwards.
type Calibration struct {
	AC1 int16  `json:"ac1"`
	AC2 int16  `json:"ac2"`
	AC3 int16  `json:"ac3"`
	AC4 uint16 `json:"ac4"`
	AC5 uint16 `json:"ac5"`
	AC6 uint16 `json:"ac6"`
	B1  int16  `json:"b1"`
	B2  int16  `json:"b2"`
	MB  int16  `json:"mb"`
	MC  int16  `json:"mc"`
	MD  int16  `json:"md"`
}

// calibration words in register order, 0xAA through 0xBE
func newCalibration(w [calibrationWords]uint16) Calibration {
	return Calibration{
		AC1: int16(w[0]),
		AC2: int16(w[1]),
		AC3: int16(w[2]),
		AC4: w[3],
		AC5: w[4],
		AC6: w[5],
		B1:  int16(w[6]),
		B2:  int16(w[7]),
		MB:  int16(w[8]),
		MC:  int16(w[9]),
		MD:  int16(w[10]),
	}
}

//Valid reports whether the coefficients look like they came from a real
//device. A missing sensor reads back the same word for every register.
func (c Calibration) Valid() bool {
	return !(c.AC1 == c.AC2 && c.AC2 == c.AC3)
}

//CompensateTemperature converts an uncompensated temperature sample into
//tenths of a degree Celsius. It also returns b5, which CompensatePressure
//needs for the pressure sample of the same acquisition cycle.
//
//All arithmetic is 32-bit, as in the datasheet reference code.
func (c Calibration) CompensateTemperature(ut uint16) (int16, int32, error) {
	x1 := ((int32(ut) - int32(c.AC6)) * int32(c.AC5)) >> 15
	den := x1 + int32(c.MD)
	if den == 0 {
		return 0, 0, ErrArithmeticDegenerate
	}
	x2 := (int32(c.MC) << 11) / den
	b5 := x1 + x2

	return int16((b5 + 8) >> 4), b5, nil
}

//CompensatePressure converts an uncompensated pressure sample into pascals.
//b5 must come from CompensateTemperature for the same acquisition cycle and
//oss must be the oversampling setting the sample was taken with.
func (c Calibration) CompensatePressure(up uint32, b5 int32, oss Oversampling) (int32, error) {
	b6 := b5 - 4000
	x1 := (int32(c.B2) * ((b6 * b6) >> 12)) >> 11
	x2 := (int32(c.AC2) * b6) >> 11
	x3 := x1 + x2
	b3 := (((int32(c.AC1)*4 + x3) << oss) + 2) / 4

	x1 = (int32(c.AC3) * b6) >> 13
	x2 = (int32(c.B1) * ((b6 * b6) >> 12)) >> 16
	x3 = ((x1 + x2) + 2) >> 2
	b4 := (uint32(c.AC4) * uint32(x3+32768)) >> 15
	if b4 == 0 {
		return 0, ErrArithmeticDegenerate
	}
	b7 := (up - uint32(b3)) * (uint32(50000) >> oss)

	var p int32
	if b7 < 0x80000000 {
		p = int32((b7 * 2) / b4)
	} else {
		p = int32((b7 / b4) * 2)
	}

	x1 = (p >> 8) * (p >> 8)
	x1 = (x1 * 3038) >> 16
	x2 = (-7357 * p) >> 16

	return p + ((x1 + x2 + 3791) >> 4), nil
}
