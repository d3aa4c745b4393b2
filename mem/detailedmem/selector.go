package detailedmem

// bankSelector maps an address onto one of numBanks banks.
type bankSelector interface {
	Select(address uint64, numBanks int) int
}

// rowInterleaving places consecutive rows in consecutive banks, wrapping
// around after the last bank.
type rowInterleaving struct {
	rowShift uint64
}

func (s rowInterleaving) Select(address uint64, numBanks int) int {
	if numBanks <= 0 {
		return 0
	}

	row := address >> s.rowShift

	return int(row % uint64(numBanks))
}
