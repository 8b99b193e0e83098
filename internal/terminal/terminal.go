package terminal

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/transit-ticketing-service/internal/discount"
	"github.com/transit-ticketing-service/internal/domain"
	"github.com/transit-ticketing-service/internal/domain/repository"
	"github.com/transit-ticketing-service/internal/pkg/errors"
	"go.uber.org/zap"
)

// Pricer is the fare query surface of the route engine.
type Pricer interface {
	CalculateFare(start, end string) (int, bool)
}

// Network is the station lookup surface of the registry.
type Network interface {
	GetStation(code string) (*domain.Station, bool)
	HasStation(code string) bool
}

// Wallet is the payer's account, owned by the caller. The terminal only
// checks and deducts; it never creates funds except on refund.
type Wallet interface {
	Balance() int
	HasFunds(amount int) bool
	Deduct(amount int) error
	Deposit(amount int)
}

// Distance-estimate pricing, used only when no priced route exists.
const (
	estimateDivisor  = 100
	estimateMinPrice = 10
)

// Terminal issues tickets: it quotes a price, collects payment and hands
// back an unused ticket bound to the origin and destination.
type Terminal struct {
	network   Network
	pricer    Pricer
	discounts *discount.Service
	cache     repository.FareCacheRepository
	quoteTTL  time.Duration

	// distanceFallback prices endpoint pairs with no route by the
	// straight-line distance between their positions.
	distanceFallback bool

	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Terminal)

func WithQuoteCache(cache repository.FareCacheRepository, ttl time.Duration) Option {
	return func(t *Terminal) {
		t.cache = cache
		t.quoteTTL = ttl
	}
}

func WithDistanceFallback() Option {
	return func(t *Terminal) { t.distanceFallback = true }
}

func WithClock(now func() time.Time) Option {
	return func(t *Terminal) { t.now = now }
}

func New(network Network, pricer Pricer, discounts *discount.Service, logger *zap.Logger, opts ...Option) *Terminal {
	t := &Terminal{
		network:   network,
		pricer:    pricer,
		discounts: discounts,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// QuotePrice returns the price a ticket between the two stations would
// cost right now, discount included.
func (t *Terminal) QuotePrice(ctx context.Context, start, end string) (int, error) {
	base, err := t.basePrice(ctx, start, end)
	if err != nil {
		return 0, err
	}
	return t.discounts.Apply(base), nil
}

// basePrice resolves the undiscounted price. Cached values hold the
// undiscounted amount so a discount change does not serve stale totals.
func (t *Terminal) basePrice(ctx context.Context, start, end string) (int, error) {
	if !t.network.HasStation(start) {
		return 0, errors.ErrStationNotFound.WithDetails(map[string]interface{}{"code": start})
	}
	if !t.network.HasStation(end) {
		return 0, errors.ErrStationNotFound.WithDetails(map[string]interface{}{"code": end})
	}

	key := domain.FareKey(start, end)
	if t.cache != nil {
		if price, ok, err := t.cache.GetQuote(ctx, key); err != nil {
			t.logger.Warn("Quote cache read failed", zap.Error(err))
		} else if ok {
			return price, nil
		}
	}

	price, ok := t.pricer.CalculateFare(start, end)
	if !ok {
		if !t.distanceFallback {
			return 0, errors.ErrNoRoute.WithDetails(map[string]interface{}{"start": start, "end": end})
		}
		price = t.estimatePrice(start, end)
		t.logger.Warn("No priced route, using distance estimate",
			zap.String("start", start),
			zap.String("end", end),
			zap.Int("price", price))
	}

	if t.cache != nil {
		if err := t.cache.SetQuote(ctx, key, price, t.quoteTTL); err != nil {
			t.logger.Warn("Quote cache write failed", zap.Error(err))
		}
	}
	return price, nil
}

func (t *Terminal) estimatePrice(start, end string) int {
	a, okA := t.network.GetStation(start)
	b, okB := t.network.GetStation(end)
	if !okA || !okB {
		return estimateMinPrice
	}
	price := int(math.Floor(a.Position.DistanceTo(b.Position) / estimateDivisor))
	if price < estimateMinPrice {
		price = estimateMinPrice
	}
	return price
}

// IssueTicket charges the wallet and returns a fresh unused ticket.
// Nothing is deducted when the quote fails or funds are short.
func (t *Terminal) IssueTicket(ctx context.Context, start, end string, wallet Wallet) (*domain.Ticket, error) {
	price, err := t.QuotePrice(ctx, start, end)
	if err != nil {
		return nil, err
	}

	if !wallet.HasFunds(price) {
		return nil, errors.ErrInsufficientFunds.WithDetails(map[string]interface{}{
			"price":   price,
			"balance": wallet.Balance(),
		})
	}
	if err := wallet.Deduct(price); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Origin:      start,
		Destination: end,
		IssueTime:   t.now(),
		Status:      domain.TicketUnused,
		Price:       price,
	}

	t.logger.Info("Ticket issued",
		zap.String("ticket_id", ticket.ID),
		zap.String("origin", start),
		zap.String("destination", end),
		zap.Int("price", price))

	return ticket, nil
}

// Refund returns the purchase price of an unused ticket to the wallet.
// The ticket is spent in the process and can never enter a gate.
func (t *Terminal) Refund(ticket *domain.Ticket, wallet Wallet) error {
	if err := ticket.Spend(); err != nil {
		return errors.ErrTicketState.WithDetails(map[string]interface{}{
			"ticket_id": ticket.ID,
			"status":    ticket.Status.String(),
		})
	}
	wallet.Deposit(ticket.Price)

	t.logger.Info("Ticket refunded",
		zap.String("ticket_id", ticket.ID),
		zap.Int("price", ticket.Price))
	return nil
}
