package treasury

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

// Entrant enters a raffle. *lottery.Raffle implements it.
type Entrant interface {
	Enter(ctx context.Context, identity lottery.Identity, amount *big.Int) error
}

// Escrow is an account of a Treasury which holds the pot of a raffle.
type Escrow struct {
	treasury *Treasury
	account  lottery.Identity
}

var _ lottery.Payer = &Escrow{}

// NewEscrow returns an Escrow backed by account in t.
func NewEscrow(t *Treasury, account lottery.Identity) *Escrow {
	return &Escrow{treasury: t, account: account}
}

// Account returns the escrow's account identity.
func (e *Escrow) Account() lottery.Identity {
	return e.account
}

// Balance returns the amount held in escrow.
func (e *Escrow) Balance() *big.Int {
	return e.treasury.Balance(e.account)
}

// Pay implements lottery.Payer.
func (e *Escrow) Pay(ctx context.Context, to lottery.Identity, amount *big.Int) error {
	return e.treasury.Transfer(ctx, e.account, to, amount)
}

// Enter moves amount from identity into escrow and enters the raffle with it.
// If the raffle rejects the entry the amount is refunded, so the escrow
// balance tracks the pot. A frozen entrant is refused before anything moves.
func (e *Escrow) Enter(ctx context.Context, raffle Entrant, identity lottery.Identity, amount *big.Int) error {
	if err := e.treasury.Transfer(ctx, identity, e.account, amount); err != nil {
		return err
	}
	enterErr := raffle.Enter(ctx, identity, amount)
	if enterErr == nil {
		return nil
	}
	if err := e.treasury.refund(ctx, e.account, identity, amount); err != nil {
		log.Errorf(ctx, "Failed to refund %v to %q after rejected entry: %v", amount, identity, err)
		return errors.Wrapf(enterErr, "refund failed: %v", err)
	}
	return enterErr
}
