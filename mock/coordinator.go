package mock

import (
	"context"
	"math/big"
	"sort"

	"github.com/cockroachdb/cockroach/pkg/util/syncutil"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

const (
	// MaxConsumers is the maximum number of consumers per subscription.
	MaxConsumers = 100
	// MaxNumWords is the maximum number of words per request.
	MaxNumWords = 500
	// DefaultFulfillmentGas is the gas charged for delivering a callback.
	DefaultFulfillmentGas = 100000
)

var (
	// ErrInvalidSubscription is returned for subscription ids which were never
	// created.
	ErrInvalidSubscription = errors.New("invalid subscription")
	// ErrInvalidConsumer is returned when a consumer not added to the
	// subscription requests randomness.
	ErrInvalidConsumer = errors.New("invalid consumer")
	// ErrTooManyConsumers is returned when adding more than MaxConsumers.
	ErrTooManyConsumers = errors.New("too many consumers")
	// ErrInsufficientBalance is returned when the subscription cannot pay for
	// a fulfillment.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNonexistentRequest is returned when fulfilling an unknown request.
	ErrNonexistentRequest = errors.New("nonexistent request")
)

// Subscription is a snapshot of a coordinator subscription.
type Subscription struct {
	ID        uint64
	Balance   *big.Int
	ReqCount  uint64
	Consumers int
}

type subscription struct {
	balance   *big.Int
	reqCount  uint64
	consumers []lottery.Consumer
}

type request struct {
	subID            uint64
	block            uint64
	minConfirmations uint16
	callbackGasLimit uint32
	numWords         uint32
	consumer         lottery.Consumer
}

// Fulfillment records a delivered callback.
type Fulfillment struct {
	RequestID lottery.RequestID
	Words     []*big.Int
	Payment   *big.Int
	// Success is false if the consumer returned an error. The request is
	// consumed and charged either way.
	Success bool
	Err     error
}

// Coordinator is an in-memory randomness oracle with subscription billing.
// The random words it produces are derived from the request id and are not
// unpredictable; it is meant for development networks and tests.
type Coordinator struct {
	mu struct {
		syncutil.Mutex
		subs          map[uint64]*subscription
		requests      map[lottery.RequestID]*request
		currentSubID  uint64
		nextRequestID lottery.RequestID
		block         uint64
		fulfillments  []Fulfillment
	}
	baseFee      *big.Int
	gasPriceLink *big.Int
	// FulfillmentGas is the gas charged per fulfillment on top of the base
	// fee.
	FulfillmentGas uint64
}

var _ lottery.RandomnessProvider = &Coordinator{}

// NewCoordinator returns a Coordinator charging baseFee plus gasPriceLink
// per unit of gas for each fulfillment.
func NewCoordinator(baseFee, gasPriceLink *big.Int) *Coordinator {
	c := &Coordinator{
		baseFee:        new(big.Int).Set(baseFee),
		gasPriceLink:   new(big.Int).Set(gasPriceLink),
		FulfillmentGas: DefaultFulfillmentGas,
	}
	c.mu.subs = make(map[uint64]*subscription)
	c.mu.requests = make(map[lottery.RequestID]*request)
	return c
}

// CreateSubscription creates an empty subscription and returns its id. Ids
// start at 1.
func (c *Coordinator) CreateSubscription(ctx context.Context) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mu.currentSubID++
	c.mu.subs[c.mu.currentSubID] = &subscription{balance: new(big.Int)}
	log.Infof(ctx, "Created subscription %d", c.mu.currentSubID)
	return c.mu.currentSubID
}

// FundSubscription adds amount to the balance of the subscription.
func (c *Coordinator) FundSubscription(ctx context.Context, subID uint64, amount *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.mu.subs[subID]
	if !ok {
		return errors.Wrapf(ErrInvalidSubscription, "subscription %d", subID)
	}
	if amount == nil || amount.Sign() < 0 {
		return errors.Errorf("invalid funding amount %v", amount)
	}
	sub.balance.Add(sub.balance, amount)
	log.Infof(ctx, "Funded subscription %d with %v, balance %v", subID, amount, sub.balance)
	return nil
}

// AddConsumer allows consumer to request randomness on the subscription.
// Adding a consumer twice is a no-op.
func (c *Coordinator) AddConsumer(ctx context.Context, subID uint64, consumer lottery.Consumer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.mu.subs[subID]
	if !ok {
		return errors.Wrapf(ErrInvalidSubscription, "subscription %d", subID)
	}
	if consumerIndex(sub, consumer) >= 0 {
		return nil
	}
	if len(sub.consumers) >= MaxConsumers {
		return errors.Wrapf(ErrTooManyConsumers, "subscription %d", subID)
	}
	sub.consumers = append(sub.consumers, consumer)
	log.Infof(ctx, "Added consumer to subscription %d", subID)
	return nil
}

// RemoveConsumer revokes consumer's access to the subscription.
func (c *Coordinator) RemoveConsumer(ctx context.Context, subID uint64, consumer lottery.Consumer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.mu.subs[subID]
	if !ok {
		return errors.Wrapf(ErrInvalidSubscription, "subscription %d", subID)
	}
	i := consumerIndex(sub, consumer)
	if i < 0 {
		return errors.Wrapf(ErrInvalidConsumer, "subscription %d", subID)
	}
	sub.consumers = append(sub.consumers[:i], sub.consumers[i+1:]...)
	return nil
}

// GetSubscription returns a snapshot of the subscription.
func (c *Coordinator) GetSubscription(subID uint64) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.mu.subs[subID]
	if !ok {
		return Subscription{}, errors.Wrapf(ErrInvalidSubscription, "subscription %d", subID)
	}
	return Subscription{
		ID:        subID,
		Balance:   new(big.Int).Set(sub.balance),
		ReqCount:  sub.reqCount,
		Consumers: len(sub.consumers),
	}, nil
}

func consumerIndex(sub *subscription, consumer lottery.Consumer) int {
	for i, cons := range sub.consumers {
		if cons == consumer {
			return i
		}
	}
	return -1
}

// RequestRandomness implements lottery.RandomnessProvider. Request ids are
// sequential starting at 1.
func (c *Coordinator) RequestRandomness(
	ctx context.Context, req lottery.RandomnessRequest,
) (lottery.RequestID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.mu.subs[req.SubscriptionID]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidSubscription, "subscription %d", req.SubscriptionID)
	}
	if req.Consumer == nil || consumerIndex(sub, req.Consumer) < 0 {
		return 0, errors.Wrapf(ErrInvalidConsumer, "subscription %d", req.SubscriptionID)
	}
	if req.NumWords == 0 || req.NumWords > MaxNumWords {
		return 0, errors.Errorf("num words %d out of range [1, %d]", req.NumWords, MaxNumWords)
	}
	c.mu.nextRequestID++
	id := c.mu.nextRequestID
	c.mu.requests[id] = &request{
		subID:            req.SubscriptionID,
		block:            c.mu.block,
		minConfirmations: req.MinConfirmations,
		callbackGasLimit: req.CallbackGasLimit,
		numWords:         req.NumWords,
		consumer:         req.Consumer,
	}
	sub.reqCount++
	log.Infof(
		ctx, "Random words requested, request id: %d, subscription: %d, key hash: %s, block: %d",
		id, req.SubscriptionID, req.KeyHash, c.mu.block,
	)
	return id, nil
}

// PendingRequests returns the ids of requests not yet fulfilled.
func (c *Coordinator) PendingRequests() []lottery.RequestID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *Coordinator) pendingLocked() []lottery.RequestID {
	ids := make([]lottery.RequestID, 0, len(c.mu.requests))
	for id := range c.mu.requests {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AdvanceBlock mines n blocks and returns the new block number.
func (c *Coordinator) AdvanceBlock(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mu.block += n
	return c.mu.block
}

// Block returns the current block number.
func (c *Coordinator) Block() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.block
}

// Fulfillments returns every callback delivered so far.
func (c *Coordinator) Fulfillments() []Fulfillment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Fulfillment(nil), c.mu.fulfillments...)
}

// FulfillRandomWords delivers words derived from the request id to consumer.
func (c *Coordinator) FulfillRandomWords(
	ctx context.Context, id lottery.RequestID, consumer lottery.Consumer,
) (Fulfillment, error) {
	return c.FulfillRandomWordsWithOverride(ctx, id, consumer, nil)
}

// FulfillRandomWordsWithOverride delivers words to consumer. If words is
// empty, words derived from the request id are used.
func (c *Coordinator) FulfillRandomWordsWithOverride(
	ctx context.Context, id lottery.RequestID, consumer lottery.Consumer, words []*big.Int,
) (Fulfillment, error) {
	c.mu.Lock()
	req, ok := c.mu.requests[id]
	if !ok {
		c.mu.Unlock()
		return Fulfillment{}, errors.Wrapf(ErrNonexistentRequest, "request %d", id)
	}
	if len(words) == 0 {
		words = DeriveWords(id, req.numWords)
	}
	sub := c.mu.subs[req.subID]
	payment := new(big.Int).Mul(c.gasPriceLink, new(big.Int).SetUint64(c.FulfillmentGas))
	payment.Add(payment, c.baseFee)
	if sub.balance.Cmp(payment) < 0 {
		c.mu.Unlock()
		return Fulfillment{}, errors.Wrapf(
			ErrInsufficientBalance, "subscription %d has %v, fulfillment costs %v",
			req.subID, sub.balance, payment,
		)
	}
	sub.balance.Sub(sub.balance, payment)
	delete(c.mu.requests, id)
	c.mu.Unlock()

	// The consumer may call back into the coordinator.
	err := consumer.FulfillRandomWords(ctx, id, words)
	f := Fulfillment{RequestID: id, Words: words, Payment: payment, Success: err == nil, Err: err}
	if err != nil {
		log.Warningf(ctx, "Consumer failed to handle random words for request %d: %v", id, err)
	} else {
		log.Infof(ctx, "Random words fulfilled, request id: %d, payment: %v", id, payment)
	}
	c.mu.Lock()
	c.mu.fulfillments = append(c.mu.fulfillments, f)
	c.mu.Unlock()
	return f, nil
}

// FulfillReady fulfils, in id order, every request whose minimum
// confirmations have been reached at the current block. Requests the
// subscription cannot pay for stay pending.
func (c *Coordinator) FulfillReady(ctx context.Context) []Fulfillment {
	c.mu.Lock()
	var ready []lottery.RequestID
	var consumers []lottery.Consumer
	for _, id := range c.pendingLocked() {
		req := c.mu.requests[id]
		if req.block+uint64(req.minConfirmations) <= c.mu.block {
			ready = append(ready, id)
			consumers = append(consumers, req.consumer)
		}
	}
	c.mu.Unlock()

	var done []Fulfillment
	for i, id := range ready {
		f, err := c.FulfillRandomWords(ctx, id, consumers[i])
		if err != nil {
			log.Warningf(ctx, "Could not fulfill request %d: %v", id, err)
			continue
		}
		done = append(done, f)
	}
	return done
}

// DeriveWords returns keccak256(abi.encode(id, i)) for i in [0, n).
func DeriveWords(id lottery.RequestID, n uint32) []*big.Int {
	words := make([]*big.Int, n)
	var buf [64]byte
	new(big.Int).SetUint64(uint64(id)).FillBytes(buf[:32])
	for i := uint32(0); i < n; i++ {
		big.NewInt(int64(i)).FillBytes(buf[32:])
		h := sha3.NewLegacyKeccak256()
		_, _ = h.Write(buf[:])
		words[i] = new(big.Int).SetBytes(h.Sum(nil))
	}
	return words
}
