package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mvxid/indexer/internal/metrics"
	"github.com/mvxid/indexer/internal/models"
	"gorm.io/gorm"
)

// OverviewUpdate is the overview field group of a profile
type OverviewUpdate struct {
	Username string
	Avatar   string
	Location string
	Website  string
	Shortbio string
	TxHash   string
}

// SocialUpdate is the social-handles field group of a profile
type SocialUpdate struct {
	Telegram  string
	Discord   string
	Twitter   string
	Medium    string
	Facebook  string
	OtherLink string
	TxHash    string
}

// WalletUpdate is the cross-chain wallet field group of a profile
type WalletUpdate struct {
	WalletEgld string
	WalletBtc  string
	WalletEth  string
	TxHash     string
}

// ProfileByName looks up a profile by domain name. Returns nil without an
// error when no profile exists.
func (s *Store) ProfileByName(ctx context.Context, name string) (*models.DomainProfile, error) {
	var profile models.DomainProfile
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up profile %s: %w", name, err)
	}
	return &profile, nil
}

// UpsertProfileOverview creates or merges the overview section of a profile.
// Only the overview fields and the tx hash are touched on an existing row.
func (s *Store) UpsertProfileOverview(ctx context.Context, name string, update OverviewUpdate) error {
	return s.upsertProfile(ctx, name, func(profile *models.DomainProfile) {
		profile.Username = update.Username
		profile.Avatar = update.Avatar
		profile.Location = update.Location
		profile.Website = update.Website
		profile.Shortbio = update.Shortbio
		profile.TxHash = update.TxHash
	})
}

// UpsertProfileSocial creates or merges the social section of a profile
func (s *Store) UpsertProfileSocial(ctx context.Context, name string, update SocialUpdate) error {
	return s.upsertProfile(ctx, name, func(profile *models.DomainProfile) {
		profile.Telegram = update.Telegram
		profile.Discord = update.Discord
		profile.Twitter = update.Twitter
		profile.Medium = update.Medium
		profile.Facebook = update.Facebook
		profile.OtherLink = update.OtherLink
		profile.TxHash = update.TxHash
	})
}

// UpsertProfileWallet creates or merges the wallet section of a profile
func (s *Store) UpsertProfileWallet(ctx context.Context, name string, update WalletUpdate) error {
	return s.upsertProfile(ctx, name, func(profile *models.DomainProfile) {
		profile.WalletEgld = update.WalletEgld
		profile.WalletBtc = update.WalletBtc
		profile.WalletEth = update.WalletEth
		profile.TxHash = update.TxHash
	})
}

// ReplaceProfileTextRecords creates or merges the text-record section of a
// profile. The record set is replaced wholesale, never unioned.
func (s *Store) ReplaceProfileTextRecords(ctx context.Context, name string, records models.TextRecords, txHash string) error {
	return s.upsertProfile(ctx, name, func(profile *models.DomainProfile) {
		profile.TextRecords = records
		profile.TxHash = txHash
	})
}

// upsertProfile loads the profile row for a name, creating it when absent,
// applies the section mutation, and saves the whole row
func (s *Store) upsertProfile(ctx context.Context, name string, apply func(*models.DomainProfile)) error {
	profile, err := s.ProfileByName(ctx, name)
	if err != nil {
		return err
	}
	if profile == nil {
		profile = &models.DomainProfile{Name: name}
	}

	apply(profile)

	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		metrics.RecordDatabaseOperation("upsert", "failed")
		return fmt.Errorf("failed to upsert profile %s: %w", name, err)
	}
	metrics.RecordDatabaseOperation("upsert", "success")
	return nil
}
