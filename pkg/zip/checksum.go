package zip

// CRC-32 with the standard ZIP/PNG polynomial, bit-reversed.
const crcPoly = 0xEDB88320

var crcTable = makeCRCTable()

func makeCRCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		crc := uint32(i)
		for j := 0; j < 8; j++ {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// Checksum is a streaming CRC-32 accumulator. The zero value is not
// usable; create one with NewChecksum.
type Checksum struct {
	acc uint32
}

// NewChecksum returns a checksum seeded for a fresh stream.
func NewChecksum() *Checksum {
	return &Checksum{acc: 0xFFFFFFFF}
}

// Update folds p into the running checksum.
func (c *Checksum) Update(p []byte) {
	acc := c.acc
	for _, b := range p {
		acc = crcTable[byte(acc)^b] ^ (acc >> 8)
	}
	c.acc = acc
}

// Sum32 returns the checksum of everything written so far.
func (c *Checksum) Sum32() uint32 {
	return c.acc ^ 0xFFFFFFFF
}

// Checksum32 returns the CRC-32 of data in one shot.
func Checksum32(data []byte) uint32 {
	c := NewChecksum()
	c.Update(data)
	return c.Sum32()
}
