// Package treasury keeps account balances in wei and holds entry fees in
// escrow until they are paid out.
package treasury

import (
	"context"
	"math/big"
	"sort"

	"github.com/cockroachdb/cockroach/pkg/util/syncutil"
	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

var (
	// ErrInsufficientFunds is returned when the source account cannot cover
	// a transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAccountFrozen is returned when either side of a transfer is frozen.
	ErrAccountFrozen = errors.New("account frozen")
	// ErrInvalidAmount is returned for nil or negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

type account struct {
	balance *big.Int
	frozen  bool
}

// Treasury is an in-memory ledger of account balances.
type Treasury struct {
	mu struct {
		syncutil.RWMutex
		accounts map[lottery.Identity]*account
	}
}

// New returns an empty Treasury.
func New() *Treasury {
	t := &Treasury{}
	t.mu.accounts = make(map[lottery.Identity]*account)
	return t
}

func (t *Treasury) accountLocked(id lottery.Identity) *account {
	acc, ok := t.mu.accounts[id]
	if !ok {
		acc = &account{balance: new(big.Int)}
		t.mu.accounts[id] = acc
	}
	return acc
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "%v", amount)
	}
	return nil
}

// Deposit credits amount to id.
func (t *Treasury) Deposit(ctx context.Context, id lottery.Identity, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	acc := t.accountLocked(id)
	acc.balance.Add(acc.balance, amount)
	log.Infof(ctx, "Deposited %v to %q, balance %v", amount, id, acc.balance)
	return nil
}

// Balance returns the balance of id. Unknown accounts have a zero balance.
func (t *Treasury) Balance(id lottery.Identity) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	acc, ok := t.mu.accounts[id]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(acc.balance)
}

// Transfer moves amount from one account to another. Frozen accounts can
// neither send nor receive. Nothing moves on error.
func (t *Treasury) Transfer(ctx context.Context, from, to lottery.Identity, amount *big.Int) error {
	return t.transfer(ctx, from, to, amount, false /* ignoreFrozen */)
}

// refund returns amount from an escrow account to the entrant it was taken
// from, whether or not the entrant was frozen since.
func (t *Treasury) refund(ctx context.Context, from, to lottery.Identity, amount *big.Int) error {
	return t.transfer(ctx, from, to, amount, true /* ignoreFrozen */)
}

func (t *Treasury) transfer(
	ctx context.Context, from, to lottery.Identity, amount *big.Int, ignoreFrozen bool,
) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	src := t.accountLocked(from)
	dst := t.accountLocked(to)
	if !ignoreFrozen {
		if src.frozen {
			return errors.Wrapf(ErrAccountFrozen, "%q", from)
		}
		if dst.frozen {
			return errors.Wrapf(ErrAccountFrozen, "%q", to)
		}
	}
	if src.balance.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientFunds, "%q has %v, needs %v", from, src.balance, amount)
	}
	src.balance.Sub(src.balance, amount)
	dst.balance.Add(dst.balance, amount)
	if log.V(1) {
		log.Infof(ctx, "Transferred %v from %q to %q", amount, from, to)
	}
	return nil
}

// Freeze makes id refuse transfers in either direction. Refunds of
// rejected entries still reach it.
func (t *Treasury) Freeze(id lottery.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accountLocked(id).frozen = true
}

// Frozen reports whether id is frozen.
func (t *Treasury) Frozen(id lottery.Identity) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	acc, ok := t.mu.accounts[id]
	return ok && acc.frozen
}

// Unfreeze reverts Freeze.
func (t *Treasury) Unfreeze(id lottery.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accountLocked(id).frozen = false
}

// Accounts returns the balance of every known account.
func (t *Treasury) Accounts() map[lottery.Identity]*big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[lottery.Identity]*big.Int, len(t.mu.accounts))
	for id, acc := range t.mu.accounts {
		out[id] = new(big.Int).Set(acc.balance)
	}
	return out
}

// Identities returns the known account identities in sorted order.
func (t *Treasury) Identities() []lottery.Identity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]lottery.Identity, 0, len(t.mu.accounts))
	for id := range t.mu.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
