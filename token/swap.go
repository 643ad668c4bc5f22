package token

import (
	"bytes"
	"time"

	"github.com/xraph/pcetoken/types"
)

// Swap burns burn from holder on src and mints mint to holder on dst as one
// step. Both ledgers are locked in address order; if either side fails
// neither ledger changes.
func Swap(src, dst *Ledger, holder types.Address, burn, mint types.Amount, now time.Time) (Effects, Effects, error) {
	if src == dst || src.address == dst.address {
		return Effects{}, Effects{}, ErrSameLedger
	}
	if err := checkAmount(burn); err != nil {
		return Effects{}, Effects{}, err
	}
	if err := checkAmount(mint); err != nil {
		return Effects{}, Effects{}, err
	}
	if holder == types.ZeroAddress {
		return Effects{}, Effects{}, ErrInvalidAccount
	}

	first, second := src, dst
	if bytes.Compare(dst.address.Bytes(), src.address.Bytes()) < 0 {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	ts := now.Unix()
	srcPrev, dstPrev := src.snapshotLocked(), dst.snapshotLocked()
	srcFx, err := src.burnLocked(holder, burn, ts)
	if err != nil {
		return Effects{}, Effects{}, err
	}
	dstFx := newEffects()
	dst.settleLocked(ts, &dstFx)
	if err := dst.mintLocked(holder, mint); err != nil {
		src.loadLocked(srcPrev)
		dst.loadLocked(dstPrev)
		return Effects{}, Effects{}, err
	}
	src.entity.Touch(now)
	dst.entity.Touch(now)
	return srcFx, dstFx, nil
}
