package api

import "github.com/mvxid/indexer/internal/models"

// DomainDTO is the single-domain response shape. Unregistered names come
// back as an availability quote carrying only the name and prices.
type DomainDTO struct {
	Name           string `json:"name"`
	Sender         string `json:"sender,omitempty"`
	OwnerAddress   string `json:"ownerAddress,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
	Duration       int    `json:"duration,omitempty"`
	ExpiresAt      string `json:"expiresAt,omitempty"`
	PrimaryAddress string `json:"primaryAddress"`
	PriceEgld      string `json:"priceEgld"`
	PriceUsd       string `json:"priceUsd"`
	IsAvailable    bool   `json:"isAvailable"`
	IsSubdomain    bool   `json:"isSubdomain"`
}

// DomainAccountDTO is the list-item shape for domain and account listings
type DomainAccountDTO struct {
	Name           string `json:"name"`
	Sender         string `json:"sender"`
	OwnerAddress   string `json:"ownerAddress"`
	Timestamp      string `json:"timestamp"`
	Duration       int    `json:"duration"`
	ExpiresAt      string `json:"expiresAt"`
	PrimaryAddress string `json:"primaryAddress"`
	PriceEgld      string `json:"priceEgld"`
	PriceUsd       string `json:"priceUsd"`
}

// SubdomainDTO is the trimmed shape of a subdomain listing entry
type SubdomainDTO struct {
	Name      string `json:"name"`
	ExpiresAt string `json:"expiresAt"`
}

// ProfileDTO is the profile response shape. A missing profile serializes as
// all empty fields rather than a 404.
type ProfileDTO struct {
	Name        string             `json:"name"`
	Username    string             `json:"username"`
	Avatar      string             `json:"avatar"`
	Location    string             `json:"location"`
	Website     string             `json:"website"`
	Shortbio    string             `json:"shortbio"`
	Telegram    string             `json:"telegram"`
	Medium      string             `json:"medium"`
	Discord     string             `json:"discord"`
	Twitter     string             `json:"twitter"`
	Facebook    string             `json:"facebook"`
	OtherLink   string             `json:"otherLink"`
	TextRecords models.TextRecords `json:"textRecords"`
	WalletEgld  string             `json:"walletEgld"`
	WalletEth   string             `json:"walletEth"`
	WalletBtc   string             `json:"walletBtc"`
}

// listResponse is the pagination envelope shared by all listing endpoints
type listResponse struct {
	Data       any   `json:"data"`
	TotalCount int64 `json:"totalCount"`
}

func toDomainDTO(domain *models.Domain) DomainDTO {
	primary := ""
	if domain.PrimaryAddress != nil {
		primary = *domain.PrimaryAddress
	}
	return DomainDTO{
		Name:           domain.Name,
		Sender:         domain.Sender,
		OwnerAddress:   domain.OwnerAddress,
		Timestamp:      domain.Timestamp,
		Duration:       domain.Duration,
		ExpiresAt:      domain.ExpiresAt,
		PrimaryAddress: primary,
		PriceEgld:      domain.PriceEgld,
		PriceUsd:       domain.PriceUsd,
		IsAvailable:    false,
		IsSubdomain:    domain.IsSubdomain,
	}
}

func toAvailableDomainDTO(name, priceEgld, priceUsd string) DomainDTO {
	return DomainDTO{
		Name:        name,
		PriceEgld:   priceEgld,
		PriceUsd:    priceUsd,
		IsAvailable: true,
	}
}

func toDomainAccountDTOs(domains []models.Domain) []DomainAccountDTO {
	dtos := make([]DomainAccountDTO, 0, len(domains))
	for i := range domains {
		primary := ""
		if domains[i].PrimaryAddress != nil {
			primary = *domains[i].PrimaryAddress
		}
		dtos = append(dtos, DomainAccountDTO{
			Name:           domains[i].Name,
			Sender:         domains[i].Sender,
			OwnerAddress:   domains[i].OwnerAddress,
			Timestamp:      domains[i].Timestamp,
			Duration:       domains[i].Duration,
			ExpiresAt:      domains[i].ExpiresAt,
			PrimaryAddress: primary,
			PriceEgld:      domains[i].PriceEgld,
			PriceUsd:       domains[i].PriceUsd,
		})
	}
	return dtos
}

func toSubdomainDTOs(domains []models.Domain) []SubdomainDTO {
	dtos := make([]SubdomainDTO, 0, len(domains))
	for i := range domains {
		dtos = append(dtos, SubdomainDTO{
			Name:      domains[i].Name,
			ExpiresAt: domains[i].ExpiresAt,
		})
	}
	return dtos
}

func toProfileDTO(profile *models.DomainProfile) ProfileDTO {
	if profile == nil {
		return ProfileDTO{TextRecords: models.TextRecords{}}
	}
	records := profile.TextRecords
	if records == nil {
		records = models.TextRecords{}
	}
	return ProfileDTO{
		Name:        profile.Name,
		Username:    profile.Username,
		Avatar:      profile.Avatar,
		Location:    profile.Location,
		Website:     profile.Website,
		Shortbio:    profile.Shortbio,
		Telegram:    profile.Telegram,
		Medium:      profile.Medium,
		Discord:     profile.Discord,
		Twitter:     profile.Twitter,
		Facebook:    profile.Facebook,
		OtherLink:   profile.OtherLink,
		TextRecords: records,
		WalletEgld:  profile.WalletEgld,
		WalletEth:   profile.WalletEth,
		WalletBtc:   profile.WalletBtc,
	}
}
