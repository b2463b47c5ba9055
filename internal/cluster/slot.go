package cluster

import "bytes"

// SlotCount is the number of hash slots in a Redis Cluster.
const SlotCount = 16384

// Slot returns the hash slot of key: CRC16 (XMODEM) of the hash tag, or of
// the whole key when it has none, modulo SlotCount.
func Slot(key []byte) int {
	return int(crc16(HashTag(key)) % SlotCount)
}

// HashTag returns the part of key that is hashed. When key contains a '{'
// followed later by a '}' with at least one byte between them, only those
// bytes are hashed; otherwise the whole key is.
func HashTag(key []byte) []byte {
	open := bytes.IndexByte(key, '{')
	if open < 0 {
		return key
	}
	end := bytes.IndexByte(key[open+1:], '}')
	if end <= 0 {
		return key
	}
	return key[open+1 : open+1+end]
}

var crcTable [256]uint16

func init() {
	const poly = 0x1021
	for i := range crcTable {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

func crc16(b []byte) uint16 {
	var crc uint16
	for _, ch := range b {
		crc = crc<<8 ^ crcTable[byte(crc>>8)^ch]
	}
	return crc
}
