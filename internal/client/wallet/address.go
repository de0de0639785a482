package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/dmitrijs2005/prestigeforum/internal/common"
)

// tronVersion is the address prefix byte of Tron mainnet addresses.
const tronVersion = 0x41

const addressPayloadSize = 20

// ValidateAddress checks a base58check Tron address such as
// TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7.
func ValidateAddress(addr string) error {
	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", common.ErrInvalidAddress, addr, err)
	}
	if version != tronVersion {
		return fmt.Errorf("%w: %q: version 0x%02x", common.ErrInvalidAddress, addr, version)
	}
	if len(payload) != addressPayloadSize {
		return fmt.Errorf("%w: %q: payload of %d bytes", common.ErrInvalidAddress, addr, len(payload))
	}
	return nil
}

// ShortAddress abbreviates an address for display: TLa2f6…wYjU7.
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-5:]
}
