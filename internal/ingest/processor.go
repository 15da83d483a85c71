// Package ingest drives the transaction ingestion pipeline: polling the
// gateway, decoding contract calls and applying them to the registry state.
package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mvxid/indexer/internal/cache"
	"github.com/mvxid/indexer/internal/gateway"
	"github.com/mvxid/indexer/internal/metrics"
	"github.com/mvxid/indexer/internal/models"
	"github.com/mvxid/indexer/internal/pricing"
	"github.com/mvxid/indexer/internal/store"
	"github.com/mvxid/indexer/internal/txdecode"
	"github.com/rs/zerolog"
)

// Outcome classifies what Process did with a transaction
type Outcome string

const (
	// OutcomeApplied means the transaction mutated registry state
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means the transaction was intentionally ignored
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means applying the transaction hit an error
	OutcomeFailed Outcome = "failed"
)

// Processor applies decoded contract transactions to the domain store
type Processor struct {
	store  *store.Store
	cache  cache.KeyValue
	logger zerolog.Logger
}

// NewProcessor creates a transaction processor
func NewProcessor(s *store.Store, kv cache.KeyValue, logger zerolog.Logger) *Processor {
	return &Processor{
		store:  s,
		cache:  kv,
		logger: logger.With().Str("component", "processor").Logger(),
	}
}

// Process applies a single contract transaction. Failed transactions and
// unknown functions are skipped; transactions already applied under the same
// hash are skipped so reprocessing a window is safe. Apply errors are
// contained here and never abort the surrounding batch.
func (p *Processor) Process(ctx context.Context, tx gateway.Transaction) Outcome {
	action := txdecode.ParseAction(tx.Function)
	logger := p.logger.With().Str("txHash", tx.TxHash).Str("function", tx.Function).Logger()

	if tx.Status == "fail" {
		logger.Debug().Msg("Skipping failed transaction")
		metrics.RecordTransaction(action.String(), string(OutcomeSkipped))
		return OutcomeSkipped
	}
	if action == txdecode.ActionUnknown {
		metrics.RecordTransaction(action.String(), string(OutcomeSkipped))
		return OutcomeSkipped
	}

	seen, err := p.store.DomainByTxHash(ctx, tx.TxHash)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to check transaction replay")
		metrics.RecordTransaction(action.String(), string(OutcomeFailed))
		return OutcomeFailed
	}
	if seen != nil {
		logger.Debug().Msg("Transaction already applied")
		metrics.RecordTransaction(action.String(), string(OutcomeSkipped))
		return OutcomeSkipped
	}

	if err := p.apply(ctx, action, tx); err != nil {
		logger.Error().Err(err).Msg("Failed to apply transaction")
		metrics.RecordTransaction(action.String(), string(OutcomeFailed))
		return OutcomeFailed
	}

	metrics.RecordTransaction(action.String(), string(OutcomeApplied))
	return OutcomeApplied
}

func (p *Processor) apply(ctx context.Context, action txdecode.Action, tx gateway.Transaction) error {
	payload, err := txdecode.DecodePayload(tx.Data)
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	args := txdecode.SplitArguments(payload)

	switch action {
	case txdecode.ActionRegisterDomain:
		return p.registerDomain(ctx, tx, args)
	case txdecode.ActionExtendDomain:
		return p.extendDomain(ctx, tx, args)
	case txdecode.ActionRegisterSubdomain:
		return p.registerSubdomain(ctx, tx, args)
	case txdecode.ActionUpdatePrimaryAddress:
		return p.updatePrimaryAddress(ctx, tx, args)
	case txdecode.ActionRemoveSubdomain:
		return p.removeSubdomain(ctx, tx, args)
	case txdecode.ActionTransferDomain:
		return p.transferDomain(ctx, tx, args)
	case txdecode.ActionUpdateOverview:
		return p.updateOverview(ctx, tx, args)
	case txdecode.ActionUpdateSocials:
		return p.updateSocials(ctx, tx, args)
	case txdecode.ActionUpdateWallets:
		return p.updateWallets(ctx, tx, args)
	case txdecode.ActionUpdateTextRecord:
		return p.updateTextRecords(ctx, tx, args)
	}
	return nil
}

// registerDomain inserts a freshly registered domain
func (p *Processor) registerDomain(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodeRegister(args)
	if err != nil {
		return err
	}
	return p.insertDomain(ctx, tx, decoded.Name, tx.Sender, decoded.Duration, false)
}

// insertDomain writes a new domain or subdomain row. When the spot price is
// not cached yet the row is still written, with zero prices, so a pricing gap
// never loses a registration.
func (p *Processor) insertDomain(ctx context.Context, tx gateway.Transaction, name, owner string, duration int, isSubdomain bool) error {
	priceEgld, priceUsd := "0", "0"
	spot, ok, err := cache.GetFloat(ctx, p.cache, cache.KeyEgldPrice)
	if err != nil {
		return fmt.Errorf("failed to read spot price: %w", err)
	}
	if ok {
		if egld, usd, err := pricing.DomainPrice(name, spot); err == nil {
			priceEgld, priceUsd = egld, usd
		}
	}

	domain := &models.Domain{
		Name:         name,
		Sender:       tx.Sender,
		OwnerAddress: owner,
		Timestamp:    strconv.FormatInt(tx.Timestamp, 10),
		Duration:     duration,
		ExpiresAt:    pricing.ExtendExpiry(tx.Timestamp, duration),
		PriceEgld:    priceEgld,
		PriceUsd:     priceUsd,
		TxHash:       tx.TxHash,
		IsSubdomain:  isSubdomain,
	}
	return p.store.CreateDomain(ctx, domain)
}

// extendDomain pushes an existing domain's expiry forward from its stored
// expiry, not from the transaction time
func (p *Processor) extendDomain(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodeExtend(args)
	if err != nil {
		return err
	}

	domain, err := p.store.DomainByName(ctx, decoded.Name)
	if err != nil {
		return err
	}
	if domain == nil {
		p.logger.Warn().Str("name", decoded.Name).Msg("Extension of unknown domain")
		return nil
	}

	expiresAt, err := strconv.ParseInt(domain.ExpiresAt, 10, 64)
	if err != nil {
		return fmt.Errorf("corrupt expiry on %s: %w", domain.Name, err)
	}

	domain.ExpiresAt = pricing.ExtendExpiry(expiresAt, decoded.Duration)
	domain.Duration = decoded.Duration
	domain.Timestamp = strconv.FormatInt(tx.Timestamp, 10)
	domain.TxHash = tx.TxHash
	return p.store.UpdateDomain(ctx, domain)
}

// registerSubdomain writes a subdomain row through the same insert path as a
// registration, with zero duration so the expiry equals the registration time
func (p *Processor) registerSubdomain(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodeSubdomain(args)
	if err != nil {
		return err
	}
	return p.insertDomain(ctx, tx, decoded.Name, decoded.OwnerAddress, 0, true)
}

// updatePrimaryAddress makes the named domain resolve the sender's address,
// clearing the flag from whichever of the target owner's domains held it
// before. An unknown name leaves all state untouched.
func (p *Processor) updatePrimaryAddress(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodePrimaryAddress(args)
	if err != nil {
		return err
	}

	domain, err := p.store.DomainByName(ctx, decoded.Name)
	if err != nil {
		return err
	}
	if domain == nil {
		p.logger.Warn().Str("name", decoded.Name).Msg("Primary update for unknown domain")
		return nil
	}

	previous, err := p.store.DomainWithPrimary(ctx, domain.OwnerAddress)
	if err != nil {
		return err
	}
	if previous != nil && previous.Name != domain.Name {
		previous.PrimaryAddress = nil
		if err := p.store.UpdateDomain(ctx, previous); err != nil {
			return err
		}
	}

	primary := tx.Sender
	domain.PrimaryAddress = &primary
	domain.TxHash = tx.TxHash
	return p.store.UpdateDomain(ctx, domain)
}

func (p *Processor) removeSubdomain(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodeRemoveSubdomain(args)
	if err != nil {
		return err
	}

	domain, err := p.store.DomainByName(ctx, decoded.Name)
	if err != nil {
		return err
	}
	if domain == nil {
		p.logger.Warn().Str("name", decoded.Name).Msg("Removal of unknown subdomain")
		return nil
	}
	return p.store.DeleteDomain(ctx, domain)
}

// transferDomain reassigns ownership and drops the previous owner's
// subdomains under the transferred name
func (p *Processor) transferDomain(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodeTransfer(args)
	if err != nil {
		return err
	}

	domain, err := p.store.DomainByName(ctx, decoded.Name)
	if err != nil {
		return err
	}
	if domain == nil {
		p.logger.Warn().Str("name", decoded.Name).Msg("Transfer of unknown domain")
		return nil
	}

	domain.OwnerAddress = decoded.NewOwner
	domain.Sender = tx.Sender
	domain.TxHash = tx.TxHash
	if err := p.store.UpdateDomain(ctx, domain); err != nil {
		return err
	}

	subdomains, err := p.store.AllSubdomainsOf(ctx, decoded.Name)
	if err != nil {
		return err
	}
	for i := range subdomains {
		if err := p.store.DeleteDomain(ctx, &subdomains[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) updateOverview(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodeOverview(args)
	if err != nil {
		return err
	}
	return p.store.UpsertProfileOverview(ctx, decoded.Name, store.OverviewUpdate{
		Username: decoded.Username,
		Avatar:   decoded.Avatar,
		Location: decoded.Location,
		Website:  decoded.Website,
		Shortbio: decoded.Shortbio,
		TxHash:   tx.TxHash,
	})
}

func (p *Processor) updateSocials(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodeSocials(args)
	if err != nil {
		return err
	}
	return p.store.UpsertProfileSocial(ctx, decoded.Name, store.SocialUpdate{
		Telegram:  decoded.Telegram,
		Discord:   decoded.Discord,
		Twitter:   decoded.Twitter,
		Medium:    decoded.Medium,
		Facebook:  decoded.Facebook,
		OtherLink: decoded.OtherLink,
		TxHash:    tx.TxHash,
	})
}

func (p *Processor) updateWallets(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodeWallets(args)
	if err != nil {
		return err
	}
	return p.store.UpsertProfileWallet(ctx, decoded.Name, store.WalletUpdate{
		WalletEgld: decoded.WalletEgld,
		WalletBtc:  decoded.WalletBtc,
		WalletEth:  decoded.WalletEth,
		TxHash:     tx.TxHash,
	})
}

func (p *Processor) updateTextRecords(ctx context.Context, tx gateway.Transaction, args []string) error {
	decoded, err := txdecode.DecodeTextRecords(args)
	if err != nil {
		return err
	}
	return p.store.ReplaceProfileTextRecords(ctx, decoded.Name, decoded.Records, tx.TxHash)
}
