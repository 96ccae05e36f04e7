package hw

// CalcCrc is the CRC-32 the address filter hashes with: reflected polynomial
// 0xEDB88320, preset to all ones, no final inversion.
func CalcCrc(data []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	for _, b := range data {
		crc ^= uint32(b)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xEDB88320
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// HashIndex returns the hash table bucket, 0 to 63, of a MAC address: the
// upper 6 bits of its CRC.
func HashIndex(addr []byte) uint {
	return uint(CalcCrc(addr)>>26) & 0x3F
}
