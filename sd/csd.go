package sd

// csd holds the handful of Card-Specific Data fields this driver needs:
// just enough to compute a sector count. The structure field (CSD_STRUCTURE)
// selects which of the two incompatible encodings applies.
type csd struct {
	structureVersion uint32
	sectorCount      uint64
}

// parseCSD decodes the 128-bit CSD register from CMD9's R2 response,
// taking RESP0..RESP3 as CSD bits [31:0]..[127:96], so every field below
// is read at the bit position the SD spec's CSD tables give it.
//
// The original driver only ever implemented the CSD version 1 (SDHC/
// SDXC, CSD_STRUCTURE==1) decode; version 0 (standard-capacity SDSC
// cards) is filled in here from the SD Physical Layer specification's
// C_SIZE/C_SIZE_MULT/READ_BL_LEN formula, since a complete driver has to
// handle both card classes.
func parseCSD(r response) csd {
	structureVersion := (r[3] >> 30) & 0x3

	if structureVersion == 1 {
		cSize := ((r[2] & 0x3F) << 16) | (r[1] >> 16)
		return csd{
			structureVersion: 1,
			sectorCount:      (uint64(cSize) + 1) * 1024,
		}
	}

	readBlLen := (r[2] >> 16) & 0xF
	cSize := ((r[2] & 0x3FF) << 2) | (r[1] >> 30)
	cSizeMult := (r[1] >> 15) & 0x7

	blockNr := (uint64(cSize) + 1) << (cSizeMult + 2)
	blockLen := uint64(1) << readBlLen
	totalBytes := blockNr * blockLen

	return csd{
		structureVersion: 0,
		sectorCount:      totalBytes / 512,
	}
}
