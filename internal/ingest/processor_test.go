package ingest

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mvxid/indexer/internal/cache"
	"github.com/mvxid/indexer/internal/database"
	"github.com/mvxid/indexer/internal/gateway"
	"github.com/mvxid/indexer/internal/pricing"
	"github.com/mvxid/indexer/internal/store"
	"github.com/mvxid/indexer/internal/txdecode"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testProcessor(t *testing.T) (*Processor, *store.Store, *cache.MemoryCache) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))

	s, err := store.New(db)
	require.NoError(t, err)

	kv := cache.NewMemoryCache()
	require.NoError(t, cache.SetFloat(context.Background(), kv, cache.KeyEgldPrice, 50, 0))

	return NewProcessor(s, kv, zerolog.Nop()), s, kv
}

func hx(s string) string {
	return hex.EncodeToString([]byte(s))
}

// encodeData base64-encodes an `@`-joined argument list the way transaction
// payloads arrive from the API
func encodeData(args ...string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(args, "@")))
}

// pad returns n copies of a filler argument
func pad(n int) []string {
	filler := make([]string, n)
	for i := range filler {
		filler[i] = "00"
	}
	return filler
}

func registerTx(txHash, sender, name string, duration string, timestamp int64) gateway.Transaction {
	args := append(pad(4), hx(name), duration)
	return gateway.Transaction{
		Data:      encodeData(args...),
		Sender:    sender,
		Status:    "success",
		Timestamp: timestamp,
		TxHash:    txHash,
		Function:  "register_domain",
	}
}

// testPubkeyHex is a syntactically valid 32-byte account key
var testPubkeyHex = strings.Repeat("ab", 32)

func TestRegisterDomain(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	outcome := p.Process(ctx, registerTx("tx1", "erd1alice", "abcd.mvx", "2", 1713000000))
	assert.Equal(t, OutcomeApplied, outcome)

	domain, err := s.DomainByName(ctx, "abcd.mvx")
	require.NoError(t, err)
	require.NotNil(t, domain)
	assert.Equal(t, "erd1alice", domain.OwnerAddress)
	assert.Equal(t, "erd1alice", domain.Sender)
	assert.Equal(t, 2, domain.Duration)
	assert.Equal(t, "100000000000000000", domain.PriceEgld, "4-character label costs 0.1 EGLD")
	assert.Equal(t, "5", domain.PriceUsd)
	assert.Equal(t, pricing.ExtendExpiry(1713000000, 2), domain.ExpiresAt)
	assert.False(t, domain.IsSubdomain)
}

func TestRegisterDomainWithoutSpotPrice(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)
	p.cache = cache.NewMemoryCache() // no price cached

	outcome := p.Process(ctx, registerTx("tx1", "erd1alice", "alice.mvx", "1", 1713000000))
	assert.Equal(t, OutcomeApplied, outcome)

	domain, err := s.DomainByName(ctx, "alice.mvx")
	require.NoError(t, err)
	require.NotNil(t, domain)
	assert.Equal(t, "0", domain.PriceEgld)
	assert.Equal(t, "0", domain.PriceUsd)
}

func TestProcessSkipsFailedTransaction(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	tx := registerTx("tx1", "erd1alice", "alice.mvx", "1", 1713000000)
	tx.Status = "fail"
	assert.Equal(t, OutcomeSkipped, p.Process(ctx, tx))

	domain, err := s.DomainByName(ctx, "alice.mvx")
	require.NoError(t, err)
	assert.Nil(t, domain)
}

func TestProcessSkipsUnknownFunction(t *testing.T) {
	ctx := context.Background()
	p, _, _ := testProcessor(t)

	tx := gateway.Transaction{
		Data: encodeData("00"), Sender: "erd1alice", Status: "success",
		TxHash: "tx1", Function: "claim_rewards",
	}
	assert.Equal(t, OutcomeSkipped, p.Process(ctx, tx))
}

func TestProcessIsIdempotentPerHash(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	tx := registerTx("tx1", "erd1alice", "alice.mvx", "1", 1713000000)
	assert.Equal(t, OutcomeApplied, p.Process(ctx, tx))
	assert.Equal(t, OutcomeSkipped, p.Process(ctx, tx))

	_, total, err := s.Domains(ctx, false, 0, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestProcessContainsDecodeErrors(t *testing.T) {
	ctx := context.Background()
	p, _, _ := testProcessor(t)

	tx := gateway.Transaction{
		Data: encodeData("00", "00"), Sender: "erd1alice", Status: "success",
		TxHash: "tx1", Function: "register_domain",
	}
	assert.Equal(t, OutcomeFailed, p.Process(ctx, tx))
}

func TestExtendDomain(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	require.Equal(t, OutcomeApplied, p.Process(ctx, registerTx("tx1", "erd1alice", "alice.mvx", "1", 1713000000)))

	registered, err := s.DomainByName(ctx, "alice.mvx")
	require.NoError(t, err)

	args := append(pad(10), hx("alice.mvx"), "2")
	extend := gateway.Transaction{
		Data: encodeData(args...), Sender: "erd1alice", Status: "success",
		Timestamp: 1713500000, TxHash: "tx2", Function: "extend_domain",
	}
	assert.Equal(t, OutcomeApplied, p.Process(ctx, extend))

	extended, err := s.DomainByName(ctx, "alice.mvx")
	require.NoError(t, err)
	assert.Equal(t, pricing.ExtendExpiry(1713000000, 3), extended.ExpiresAt,
		"extension counts from the stored expiry, not the transaction time")
	assert.Equal(t, 2, extended.Duration)
	assert.Equal(t, "tx2", extended.TxHash)
	assert.NotEqual(t, registered.ExpiresAt, extended.ExpiresAt)
}

func TestExtendUnknownDomainIsNoop(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	args := append(pad(10), hx("ghost.mvx"), "1")
	tx := gateway.Transaction{
		Data: encodeData(args...), Sender: "erd1alice", Status: "success",
		TxHash: "tx1", Function: "extend_domain",
	}
	assert.Equal(t, OutcomeApplied, p.Process(ctx, tx))

	domain, err := s.DomainByName(ctx, "ghost.mvx")
	require.NoError(t, err)
	assert.Nil(t, domain)
}

func TestRegisterSubdomain(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	args := append(pad(10), hx("x.alice.mvx"), testPubkeyHex)
	tx := gateway.Transaction{
		Data: encodeData(args...), Sender: "erd1alice", Status: "success",
		Timestamp: 1713000000, TxHash: "tx1", Function: "register_sub_domain",
	}
	assert.Equal(t, OutcomeApplied, p.Process(ctx, tx))

	wantOwner, err := txdecode.DecodeAddress(testPubkeyHex)
	require.NoError(t, err)

	sub, err := s.DomainByName(ctx, "x.alice.mvx")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, sub.IsSubdomain)
	assert.Equal(t, wantOwner, sub.OwnerAddress)
	assert.Equal(t, "erd1alice", sub.Sender)
	assert.Equal(t, 0, sub.Duration)
	assert.Equal(t, pricing.ExtendExpiry(1713000000, 0), sub.ExpiresAt,
		"zero-duration expiry is the registration time")
	assert.Equal(t, "10000000000000000", sub.PriceEgld, "long labels cost 0.01 EGLD")
	assert.Equal(t, "0.5", sub.PriceUsd)
}

func TestUpdatePrimaryAddress(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	require.Equal(t, OutcomeApplied, p.Process(ctx, registerTx("tx1", "erd1alice", "a.mvx", "1", 1713000000)))
	require.Equal(t, OutcomeApplied, p.Process(ctx, registerTx("tx2", "erd1alice", "b.mvx", "1", 1713000001)))

	primaryTx := func(txHash, name string) gateway.Transaction {
		args := append(pad(6), hx(name))
		return gateway.Transaction{
			Data: encodeData(args...), Sender: "erd1alice", Status: "success",
			TxHash: txHash, Function: "update_primary_address",
		}
	}

	require.Equal(t, OutcomeApplied, p.Process(ctx, primaryTx("tx3", "a.mvx")))

	a, err := s.DomainByName(ctx, "a.mvx")
	require.NoError(t, err)
	require.NotNil(t, a.PrimaryAddress)
	assert.Equal(t, "erd1alice", *a.PrimaryAddress)

	// Moving the primary to b.mvx must clear it from a.mvx
	require.Equal(t, OutcomeApplied, p.Process(ctx, primaryTx("tx4", "b.mvx")))

	a, err = s.DomainByName(ctx, "a.mvx")
	require.NoError(t, err)
	assert.Nil(t, a.PrimaryAddress)

	b, err := s.DomainByName(ctx, "b.mvx")
	require.NoError(t, err)
	require.NotNil(t, b.PrimaryAddress)
	assert.Equal(t, "erd1alice", *b.PrimaryAddress)
}

func TestPrimaryUpdateForUnknownDomainKeepsExisting(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	require.Equal(t, OutcomeApplied, p.Process(ctx, registerTx("tx1", "erd1alice", "a.mvx", "1", 1713000000)))

	setArgs := append(pad(6), hx("a.mvx"))
	require.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(setArgs...), Sender: "erd1alice", Status: "success",
		TxHash: "tx2", Function: "update_primary_address",
	}))

	ghostArgs := append(pad(6), hx("ghost.mvx"))
	assert.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(ghostArgs...), Sender: "erd1alice", Status: "success",
		TxHash: "tx3", Function: "update_primary_address",
	}))

	a, err := s.DomainByName(ctx, "a.mvx")
	require.NoError(t, err)
	require.NotNil(t, a.PrimaryAddress, "no-op path must not clear the existing primary")
	assert.Equal(t, "erd1alice", *a.PrimaryAddress)
}

func TestPrimaryExclusivityKeyedOnTargetOwner(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	require.Equal(t, OutcomeApplied, p.Process(ctx, registerTx("tx1", "erd1bob", "a.mvx", "1", 1713000000)))
	require.Equal(t, OutcomeApplied, p.Process(ctx, registerTx("tx2", "erd1bob", "b.mvx", "1", 1713000001)))

	setArgs := append(pad(6), hx("a.mvx"))
	require.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(setArgs...), Sender: "erd1bob", Status: "success",
		TxHash: "tx3", Function: "update_primary_address",
	}))

	// A different sender targets the other of bob's domains: the clear must
	// follow the target's owner, not the transaction sender
	otherArgs := append(pad(6), hx("b.mvx"))
	require.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(otherArgs...), Sender: "erd1alice", Status: "success",
		TxHash: "tx4", Function: "update_primary_address",
	}))

	a, err := s.DomainByName(ctx, "a.mvx")
	require.NoError(t, err)
	assert.Nil(t, a.PrimaryAddress)

	b, err := s.DomainByName(ctx, "b.mvx")
	require.NoError(t, err)
	require.NotNil(t, b.PrimaryAddress)
	assert.Equal(t, "erd1alice", *b.PrimaryAddress)
}

func TestRemoveSubdomain(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	args := append(pad(10), hx("x.alice.mvx"), testPubkeyHex)
	register := gateway.Transaction{
		Data: encodeData(args...), Sender: "erd1alice", Status: "success",
		Timestamp: 1713000000, TxHash: "tx1", Function: "register_sub_domain",
	}
	require.Equal(t, OutcomeApplied, p.Process(ctx, register))

	removeArgs := append(pad(10), hx("x.alice.mvx"))
	remove := gateway.Transaction{
		Data: encodeData(removeArgs...), Sender: "erd1alice", Status: "success",
		TxHash: "tx2", Function: "remove_sub_domain",
	}
	assert.Equal(t, OutcomeApplied, p.Process(ctx, remove))

	sub, err := s.DomainByName(ctx, "x.alice.mvx")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestRemoveUnknownSubdomainIsNoop(t *testing.T) {
	ctx := context.Background()
	p, _, _ := testProcessor(t)

	args := append(pad(10), hx("ghost.alice.mvx"))
	tx := gateway.Transaction{
		Data: encodeData(args...), Sender: "erd1alice", Status: "success",
		TxHash: "tx1", Function: "remove_sub_domain",
	}
	assert.Equal(t, OutcomeApplied, p.Process(ctx, tx))
}

func TestTransferDomainCascades(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	require.Equal(t, OutcomeApplied, p.Process(ctx, registerTx("tx1", "erd1alice", "alice.mvx", "1", 1713000000)))

	subArgs := append(pad(10), hx("x.alice.mvx"), testPubkeyHex)
	require.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(subArgs...), Sender: "erd1alice", Status: "success",
		Timestamp: 1713000001, TxHash: "tx2", Function: "register_sub_domain",
	}))

	primaryArgs := append(pad(6), hx("alice.mvx"))
	require.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(primaryArgs...), Sender: "erd1alice", Status: "success",
		TxHash: "tx3", Function: "update_primary_address",
	}))

	transferArgs := append(pad(6), hx("alice.mvx"), testPubkeyHex)
	assert.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(transferArgs...), Sender: "erd1bob", Status: "success",
		TxHash: "tx4", Function: "transfer_domain",
	}))

	wantOwner, err := txdecode.DecodeAddress(testPubkeyHex)
	require.NoError(t, err)

	domain, err := s.DomainByName(ctx, "alice.mvx")
	require.NoError(t, err)
	assert.Equal(t, wantOwner, domain.OwnerAddress)
	assert.Equal(t, "erd1bob", domain.Sender, "transfer records the transferring sender")
	require.NotNil(t, domain.PrimaryAddress, "transfer carries the primary flag forward")
	assert.Equal(t, "erd1alice", *domain.PrimaryAddress)
	assert.Equal(t, "tx4", domain.TxHash)

	sub, err := s.DomainByName(ctx, "x.alice.mvx")
	require.NoError(t, err)
	assert.Nil(t, sub, "transfer removes the previous owner's subdomains")
}

func TestTransferUnknownDomainIsNoop(t *testing.T) {
	ctx := context.Background()
	p, _, _ := testProcessor(t)

	args := append(pad(6), hx("ghost.mvx"), testPubkeyHex)
	assert.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(args...), Sender: "erd1alice", Status: "success",
		TxHash: "tx1", Function: "transfer_domain",
	}))
}

func TestProfileUpdates(t *testing.T) {
	ctx := context.Background()
	p, s, _ := testProcessor(t)

	overviewArgs := append(pad(6), hx("alice.mvx"), hx("Alice"), hx("ipfs://a"), hx("Lisbon"), hx("https://a.io"), hx("hello"))
	require.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(overviewArgs...), Sender: "erd1alice", Status: "success",
		TxHash: "tx1", Function: "update_domain_overview",
	}))

	socialArgs := append(pad(6), hx("alice.mvx"), hx("@alice_tg"), hx("alice#1"), hx("@alice"), hx(""), hx(""), hx(""))
	require.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(socialArgs...), Sender: "erd1alice", Status: "success",
		TxHash: "tx2", Function: "update_domain_socials",
	}))

	walletArgs := append(pad(6), hx("alice.mvx"), hx("erd1alice"), hx("bc1alice"), hx("0xalice"))
	require.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(walletArgs...), Sender: "erd1alice", Status: "success",
		TxHash: "tx3", Function: "update_domain_wallets",
	}))

	recordArgs := append(pad(6), hx("alice.mvx"), hx("email@a@b.c"), hx("keybase"))
	require.Equal(t, OutcomeApplied, p.Process(ctx, gateway.Transaction{
		Data: encodeData(recordArgs...), Sender: "erd1alice", Status: "success",
		TxHash: "tx4", Function: "update_domain_textrecord",
	}))

	profile, err := s.ProfileByName(ctx, "alice.mvx")
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, "Alice", profile.Username)
	assert.Equal(t, "Lisbon", profile.Location)
	assert.Equal(t, "@alice_tg", profile.Telegram)
	assert.Equal(t, "alice#1", profile.Discord)
	assert.Equal(t, "erd1alice", profile.WalletEgld)
	assert.Equal(t, "0xalice", profile.WalletEth)

	require.Len(t, profile.TextRecords, 2)
	assert.Equal(t, "email", profile.TextRecords[0].Key)
	assert.Equal(t, "a", profile.TextRecords[0].Value, "record value is the first segment after the key")
	assert.Equal(t, "keybase", profile.TextRecords[1].Key)
	assert.Equal(t, "", profile.TextRecords[1].Value)
	assert.Equal(t, "tx4", profile.TxHash)
}
