// Package pricing computes registration prices and calendar-based expiry for
// domain names.
package pricing

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPricingUnavailable is returned when no spot price is resolvable at
// registration time
var ErrPricingUnavailable = errors.New("egld spot price unavailable")

// domainSuffix is stripped from the name before measuring label length
const domainSuffix = ".mvx"

// egldDenomination scales an EGLD amount to the smallest on-chain unit
var egldDenomination = decimal.New(1, 18)

// DomainPrice prices a domain name at registration. The base price depends on
// the label length (under 4 characters: 1 EGLD, exactly 4: 0.1, 5 and over:
// 0.01); the USD price is the base multiplied by the spot price. The EGLD
// price is returned in the smallest denomination. Both are decimal strings.
func DomainPrice(name string, spotPrice float64) (priceEgld string, priceUsd string, err error) {
	if spotPrice == 0 {
		return "", "", ErrPricingUnavailable
	}

	label := strings.TrimSuffix(name, domainSuffix)

	var base decimal.Decimal
	switch {
	case len(label) < 4:
		base = decimal.NewFromInt(1)
	case len(label) == 4:
		base = decimal.NewFromFloat(0.1)
	default:
		base = decimal.NewFromFloat(0.01)
	}

	usd := base.Mul(decimal.NewFromFloat(spotPrice))
	egld := base.Mul(egldDenomination)

	return egld.String(), usd.String(), nil
}

// ExtendExpiry adds whole calendar years to an epoch-seconds timestamp and
// returns the result as an epoch-seconds decimal string. Calendar arithmetic,
// not a 365-day multiple: a Feb 29 start rolls over to Mar 1 in a non-leap
// target year.
func ExtendExpiry(epochSeconds int64, years int) string {
	t := time.Unix(epochSeconds, 0).UTC()
	extended := t.AddDate(years, 0, 0)
	return strconv.FormatInt(extended.Unix(), 10)
}
