// Package wallet routes wallet-level calls to the chain client of the named
// network.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
	"github.com/emperorhan/multichain-wallet/internal/metrics"
	"github.com/emperorhan/multichain-wallet/internal/tracing"
)

// DefaultEventStream is the stream submission events are appended to.
const DefaultEventStream = "wallet.tx.submitted"

const defaultWalletConcurrency = 4

// ClientFactory hands out the cached client of a chain.
type ClientFactory interface {
	Create(chainID int64) (chain.DataSource, error)
}

// WalletStore lists the locally stored wallets.
type WalletStore interface {
	Wallets(ctx context.Context) ([]model.Wallet, error)
}

// EventPublisher appends a JSON document to a stream.
type EventPublisher interface {
	PublishJSON(ctx context.Context, stream string, v any) (string, error)
}

type Option func(*Repository)

func WithWalletStore(store WalletStore) Option {
	return func(r *Repository) { r.wallets = store }
}

// WithEventPublisher enables submission events on stream.
func WithEventPublisher(pub EventPublisher, stream string) Option {
	return func(r *Repository) {
		r.events = pub
		if stream != "" {
			r.stream = stream
		}
	}
}

// WithConcurrency bounds how many networks GetWalletBalances queries at once.
func WithConcurrency(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

type Repository struct {
	registry    chain.NetworkRegistry
	factory     ClientFactory
	credentials chain.CredentialProvider
	wallets     WalletStore
	events      EventPublisher
	stream      string
	concurrency int
	now         func() time.Time
	tracer      trace.Tracer
	logger      *slog.Logger
}

func New(registry chain.NetworkRegistry, factory ClientFactory, credentials chain.CredentialProvider, logger *slog.Logger, opts ...Option) *Repository {
	r := &Repository{
		registry:    registry,
		factory:     factory,
		credentials: credentials,
		stream:      DefaultEventStream,
		concurrency: defaultWalletConcurrency,
		now:         time.Now,
		tracer:      tracing.Tracer("wallet"),
		logger:      logger.With("component", "wallet_repository"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// resolve maps a network name to its descriptor and client.
func (r *Repository) resolve(network string) (model.NetworkDescriptor, chain.DataSource, error) {
	desc, ok := r.registry.NetworkByName(network)
	if !ok {
		return model.NetworkDescriptor{}, nil, chain.ConfigError("resolve network", fmt.Errorf("%w: %q", chain.ErrUnknownNetwork, network))
	}
	ds, err := r.factory.Create(desc.ChainID)
	if err != nil {
		return desc, nil, err
	}
	return desc, ds, nil
}

// begin opens the span of one repository operation. The returned func closes
// it and records the outcome metrics.
func (r *Repository) begin(ctx context.Context, op, network string) (context.Context, trace.Span, func(error)) {
	started := time.Now()
	ctx, span := r.tracer.Start(ctx, "wallet."+op, trace.WithAttributes(attribute.String("wallet.network", network)))
	return ctx, span, func(err error) {
		status := "ok"
		if err != nil {
			status = string(chain.KindOf(err))
		}
		metrics.OperationsTotal.WithLabelValues(network, op, status).Inc()
		metrics.OperationLatency.WithLabelValues(network, op).Observe(time.Since(started).Seconds())
		tracing.End(span, err)
	}
}

func (r *Repository) GetBalance(ctx context.Context, network, address string) (balance *big.Int, err error) {
	ctx, span, done := r.begin(ctx, "get_balance", network)
	defer func() { done(err) }()

	desc, ds, err := r.resolve(network)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracing.NetworkAttrs(desc.Name, desc.ChainID)...)
	return ds.GetBalance(ctx, address)
}

func (r *Repository) GetAssets(ctx context.Context, network, address string) (assets []model.Asset, err error) {
	ctx, span, done := r.begin(ctx, "get_assets", network)
	defer func() { done(err) }()

	desc, ds, err := r.resolve(network)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracing.NetworkAttrs(desc.Name, desc.ChainID)...)
	return ds.GetAssetBalances(ctx, address)
}

func (r *Repository) GetTransactionHistory(ctx context.Context, network, address string) (records []model.TransactionRecord, err error) {
	ctx, span, done := r.begin(ctx, "get_history", network)
	defer func() { done(err) }()

	desc, ds, err := r.resolve(network)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracing.NetworkAttrs(desc.Name, desc.ChainID)...)
	records, err = ds.GetTransactionHistory(ctx, address)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("wallet.records", len(records)))
	return records, nil
}

func (r *Repository) GetFeeOptions(ctx context.Context, network string, req model.FeeRequest) (quotes []model.FeeQuote, err error) {
	ctx, span, done := r.begin(ctx, "get_fees", network)
	defer func() { done(err) }()

	desc, ds, err := r.resolve(network)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracing.NetworkAttrs(desc.Name, desc.ChainID)...)
	return ds.GetFeeOptions(ctx, req)
}

// SendTransaction signs params with the chain's key and broadcasts them. The
// returned id is the network's transaction id.
func (r *Repository) SendTransaction(ctx context.Context, network string, params model.TransactionParams) (txID string, err error) {
	ctx, span, done := r.begin(ctx, "send_transaction", network)
	defer func() { done(err) }()

	desc, ok := r.registry.NetworkByName(network)
	if !ok {
		return "", chain.ConfigError("send transaction", fmt.Errorf("%w: %q", chain.ErrUnknownNetwork, network))
	}
	span.SetAttributes(tracing.NetworkAttrs(desc.Name, desc.ChainID)...)

	key, ok := r.credentials.SigningKey(desc.ChainID)
	if !ok || key == nil {
		return "", chain.ValidationError("send transaction", desc.Name, chain.ErrMissingCredential)
	}

	ds, err := r.factory.Create(desc.ChainID)
	if err != nil {
		return "", err
	}

	txID, err = ds.SendTransaction(ctx, params, key)
	if err != nil {
		r.logger.Warn("send failed", "network", desc.Name, "error", err)
		return "", err
	}

	metrics.TransactionsSubmitted.WithLabelValues(desc.Name).Inc()
	span.SetAttributes(attribute.String("wallet.tx_id", txID))
	r.logger.Info("transaction submitted", "network", desc.Name, "tx_id", txID)

	r.publish(ctx, model.TxSubmittedEvent{
		ID:          uuid.New(),
		Network:     desc.Name,
		ChainID:     desc.ChainID,
		Family:      desc.Family,
		TxID:        txID,
		To:          params.Destination(),
		SubmittedAt: r.now().UTC(),
	})
	return txID, nil
}

// publish never fails the send; the transaction is already on the network.
func (r *Repository) publish(ctx context.Context, ev model.TxSubmittedEvent) {
	if r.events == nil {
		return
	}
	if _, err := r.events.PublishJSON(ctx, r.stream, ev); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		r.logger.Warn("publish submission event", "network", ev.Network, "tx_id", ev.TxID, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}
