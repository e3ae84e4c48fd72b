// Package trading settles trades. Every balance-affecting request goes
// through a TradeProcessor, which serializes work per team and hands the
// actual write to storage.Settle.
package trading

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atharvakonge/cash-or-crash/internal/locker"
	"github.com/atharvakonge/cash-or-crash/internal/logger"
	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
)

var (
	ErrInsufficientFunds    = storage.ErrInsufficientFunds
	ErrInsufficientHoldings = storage.ErrInsufficientHoldings
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrNoDividend           = errors.New("company has no dividend")
	ErrStopped              = errors.New("trade processor stopped")
)

// Kind names a settlement type.
type Kind string

const (
	KindBuyStock         Kind = "buy_stock"
	KindSellStock        Kind = "sell_stock"
	KindBuyCurrency      Kind = "buy_currency"
	KindSellCurrency     Kind = "sell_currency"
	KindAssignStock      Kind = "assign_stock"
	KindUnassignStock    Kind = "unassign_stock"
	KindAssignCurrency   Kind = "assign_currency"
	KindUnassignCurrency Kind = "unassign_currency"
	KindDividend         Kind = "dividend"
	KindAdjustCash       Kind = "adjust_cash"
	KindUpdateTeam       Kind = "update_team"
)

// Order is one settlement request.
type Order struct {
	Kind   Kind
	TeamID int64
	// InstrumentID is a company id for stock kinds and dividends, a
	// currency id for currency kinds; unused for cash adjustments.
	InstrumentID int64
	Shares       int64
	Amount       decimal.Decimal
	// Rate is the dividend rate as a fraction (0.021 for 2.1%).
	Rate decimal.Decimal
	// Patch is the team edit applied by KindUpdateTeam.
	Patch models.TeamPatch
}

// Result describes a settled order.
type Result struct {
	Team     models.Team
	Company  *models.Company
	Currency *models.Currency
	Shares   int64
	Amount   decimal.Decimal
	Price    decimal.Decimal
	Total    decimal.Decimal

	// StockRow and CurrencyRow are the ledger rows the order appended.
	StockRow    *models.TeamStock
	CurrencyRow *models.TeamCurrency
}

type tradeJob struct {
	ctx      context.Context
	order    Order
	resultCh chan tradeOutcome
}

type tradeOutcome struct {
	result Result
	err    error
}

// TradeProcessor handles concurrent trade processing
type TradeProcessor struct {
	workers int
	queue   chan tradeJob
	stopCh  chan struct{}
	done    chan struct{} // closed once Stop has drained the queue
	stopped sync.Once
	wg      sync.WaitGroup

	store storage.Storage
	locks locker.Locker
}

// NewTradeProcessor creates a trade processor with a worker pool.
func NewTradeProcessor(workers int, store storage.Storage, locks locker.Locker) *TradeProcessor {
	if workers < 1 {
		workers = 1
	}
	return &TradeProcessor{
		workers: workers,
		queue:   make(chan tradeJob, 100),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		store:   store,
		locks:   locks,
	}
}

// Start starts the worker pool
func (tp *TradeProcessor) Start() {
	for i := 0; i < tp.workers; i++ {
		tp.wg.Add(1)
		go tp.worker(i)
	}
	logger.L().Info("trade workers started", zap.Int("workers", tp.workers))
}

// Stop stops accepting orders and waits for the workers to exit.
// Orders still queued are answered with ErrStopped.
func (tp *TradeProcessor) Stop() {
	tp.stopped.Do(func() {
		close(tp.stopCh)
		tp.wg.Wait()

		for drained := false; !drained; {
			select {
			case job := <-tp.queue:
				job.resultCh <- tradeOutcome{err: ErrStopped}
			default:
				drained = true
			}
		}
		close(tp.done)
		logger.L().Info("trade processor stopped")
	})
}

func (tp *TradeProcessor) worker(id int) {
	defer tp.wg.Done()

	for {
		select {
		case <-tp.stopCh:
			return

		case job := <-tp.queue:
			if err := job.ctx.Err(); err != nil {
				job.resultCh <- tradeOutcome{err: err}
				continue
			}
			logger.WithTeam(job.order.TeamID).Debug("processing order",
				zap.Int("worker", id), zap.String("kind", string(job.order.Kind)))

			res, err := tp.process(job.ctx, job.order)
			job.resultCh <- tradeOutcome{result: res, err: err}
		}
	}
}

// Submit queues an order and waits for its result.
func (tp *TradeProcessor) Submit(ctx context.Context, order Order) (Result, error) {
	job := tradeJob{
		ctx:      ctx,
		order:    order,
		resultCh: make(chan tradeOutcome, 1),
	}

	select {
	case <-tp.stopCh:
		return Result{}, ErrStopped
	default:
	}

	select {
	case tp.queue <- job:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-tp.stopCh:
		return Result{}, ErrStopped
	}

	select {
	case out := <-job.resultCh:
		return out.result, out.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-tp.done:
		// Workers have exited; a result, if any, is already buffered.
		select {
		case out := <-job.resultCh:
			return out.result, out.err
		default:
			return Result{}, ErrStopped
		}
	}
}

// process executes a single order while holding the team's lock.
func (tp *TradeProcessor) process(ctx context.Context, o Order) (Result, error) {
	unlock, err := tp.locks.LockTeam(ctx, o.TeamID)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	var res Result
	switch o.Kind {
	case KindBuyStock, KindAssignStock, KindSellStock, KindUnassignStock:
		res, err = tp.settleStock(ctx, o)
	case KindBuyCurrency, KindAssignCurrency, KindSellCurrency, KindUnassignCurrency:
		res, err = tp.settleCurrency(ctx, o)
	case KindDividend:
		res, err = tp.settleDividend(ctx, o)
	case KindAdjustCash:
		res, err = tp.settleCash(ctx, o)
	case KindUpdateTeam:
		res, err = tp.settlePatch(ctx, o)
	default:
		err = fmt.Errorf("unknown order kind %q", o.Kind)
	}
	if err != nil {
		return Result{}, err
	}

	if o.Kind != KindDividend || res.Shares > 0 {
		logger.WithTeam(o.TeamID).Info("settled",
			zap.String("kind", string(o.Kind)),
			zap.Int64("instrument_id", o.InstrumentID),
			zap.Int64("shares", res.Shares),
			zap.String("amount", res.Amount.String()),
			zap.String("price", res.Price.String()),
			zap.String("total", res.Total.String()),
			zap.String("balance", res.Team.CashBalance.String()),
		)
	}
	return res, nil
}

func (tp *TradeProcessor) settleStock(ctx context.Context, o Order) (Result, error) {
	if o.Shares <= 0 {
		return Result{}, ErrInvalidQuantity
	}
	company, err := tp.store.GetCompany(ctx, o.InstrumentID)
	if err != nil {
		return Result{}, fmt.Errorf("load company %d: %w", o.InstrumentID, err)
	}

	qty := decimal.NewFromInt(o.Shares)
	s := storage.Settlement{TeamID: o.TeamID}
	var price decimal.Decimal

	switch o.Kind {
	case KindBuyStock, KindAssignStock:
		price = company.Price
		s.CashDelta = price.Mul(qty).Round(2).Neg()
		s.AllowNegativeCash = o.Kind == KindAssignStock
		s.Stock = &models.TeamStock{CompanyID: company.ID, Shares: o.Shares}
	default:
		price = company.SellPrice
		s.CashDelta = price.Mul(qty).Round(2)
		s.RequireHolding = true
		s.Stock = &models.TeamStock{CompanyID: company.ID, Shares: -o.Shares}
	}

	team, err := tp.store.Settle(ctx, s)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Team:     team,
		Company:  &company,
		Shares:   o.Shares,
		Price:    price,
		Total:    s.CashDelta.Abs(),
		StockRow: s.Stock,
	}, nil
}

func (tp *TradeProcessor) settleCurrency(ctx context.Context, o Order) (Result, error) {
	amount := o.Amount.Round(2)
	if !amount.IsPositive() {
		return Result{}, ErrInvalidQuantity
	}
	currency, err := tp.store.GetCurrency(ctx, o.InstrumentID)
	if err != nil {
		return Result{}, fmt.Errorf("load currency %d: %w", o.InstrumentID, err)
	}

	s := storage.Settlement{TeamID: o.TeamID}
	var rate decimal.Decimal

	switch o.Kind {
	case KindBuyCurrency, KindAssignCurrency:
		rate = currency.Rate
		s.CashDelta = rate.Mul(amount).Round(2).Neg()
		s.AllowNegativeCash = o.Kind == KindAssignCurrency
		s.Currency = &models.TeamCurrency{CurrencyID: currency.ID, Amount: amount}
	default:
		rate = currency.SellRate
		s.CashDelta = rate.Mul(amount).Round(2)
		s.RequireHolding = true
		s.Currency = &models.TeamCurrency{CurrencyID: currency.ID, Amount: amount.Neg()}
	}

	team, err := tp.store.Settle(ctx, s)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Team:        team,
		Currency:    &currency,
		Amount:      amount,
		Price:       rate,
		Total:       s.CashDelta.Abs(),
		CurrencyRow: s.Currency,
	}, nil
}

// settleDividend grants floor(holding × rate) shares. A team whose grant
// rounds to zero is left untouched and reported with Shares == 0.
func (tp *TradeProcessor) settleDividend(ctx context.Context, o Order) (Result, error) {
	rows, err := tp.store.ListTeamStocks(ctx, o.TeamID)
	if err != nil {
		return Result{}, fmt.Errorf("list stock rows: %w", err)
	}
	var holding int64
	for _, row := range rows {
		if row.CompanyID == o.InstrumentID {
			holding += row.Shares
		}
	}
	if holding <= 0 {
		return Result{}, nil
	}

	grant := decimal.NewFromInt(holding).Mul(o.Rate).Floor().IntPart()
	if grant <= 0 {
		return Result{}, nil
	}

	team, err := tp.store.Settle(ctx, storage.Settlement{
		TeamID:            o.TeamID,
		CashDelta:         decimal.Zero,
		AllowNegativeCash: true,
		Stock:             &models.TeamStock{CompanyID: o.InstrumentID, Shares: grant},
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Team: team, Shares: grant, Price: decimal.Zero, Total: decimal.Zero}, nil
}

func (tp *TradeProcessor) settleCash(ctx context.Context, o Order) (Result, error) {
	amount := o.Amount.Round(2)
	if amount.IsZero() {
		return Result{}, ErrInvalidQuantity
	}
	team, err := tp.store.Settle(ctx, storage.Settlement{TeamID: o.TeamID, CashDelta: amount})
	if err != nil {
		return Result{}, err
	}
	return Result{Team: team, Amount: amount, Total: amount.Abs()}, nil
}

// settlePatch writes the whole team edit in one store call. Holding the
// team lock keeps a cash overwrite from losing a concurrent trade.
func (tp *TradeProcessor) settlePatch(ctx context.Context, o Order) (Result, error) {
	team, err := tp.store.UpdateTeam(ctx, o.TeamID, o.Patch)
	if err != nil {
		return Result{}, err
	}
	return Result{Team: team}, nil
}
