// Package txdecode turns raw contract-call payloads into typed, per-action
// arguments. Payload data arrives base64-encoded; the decoded text is an
// `@`-separated list of hex byte strings whose positions are fixed per action
// by the contract ABI (see argTable).
package txdecode

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/mvxid/indexer/internal/models"
)

// ErrDecode is the base error for malformed transaction payloads. Decode
// failures are contained per transaction and never abort a batch.
var ErrDecode = errors.New("malformed transaction payload")

// addressHRP is the human-readable part of MultiversX bech32 addresses
const addressHRP = "erd"

// DecodeByteString interprets a hexadecimal string as a sequence of bytes and
// returns the character sequence of their code points. Lenient on purpose:
// non-hex pairs are skipped and a trailing odd character is ignored, matching
// the legacy decoder. Callers validate upstream or accept garbage output.
func DecodeByteString(hexStr string) string {
	var sb strings.Builder
	for i := 0; i+1 < len(hexStr); i += 2 {
		b, err := strconv.ParseUint(hexStr[i:i+2], 16, 8)
		if err != nil {
			continue
		}
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

// DecodePayload decodes the base64 transaction data field into its text form
func DecodePayload(data string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("%w: bad base64 data: %v", ErrDecode, err)
	}
	return string(raw), nil
}

// SplitArguments splits decoded payload text on the `@` delimiter. Index 0 is
// the function name; the remaining indices are positional per action.
func SplitArguments(payload string) []string {
	return strings.Split(payload, "@")
}

// DecodeAddress converts a hex-encoded 32-byte public key to the chain's
// bech32 address encoding
func DecodeAddress(hexPubkey string) (string, error) {
	pubkey, err := hex.DecodeString(hexPubkey)
	if err != nil {
		return "", fmt.Errorf("%w: bad address hex: %v", ErrDecode, err)
	}
	if len(pubkey) != 32 {
		return "", fmt.Errorf("%w: address pubkey is %d bytes, want 32", ErrDecode, len(pubkey))
	}

	// Convert data to base32 and encode as bech32
	convData, err := bech32.ConvertBits(pubkey, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: address bit conversion: %v", ErrDecode, err)
	}
	encoded, err := bech32.Encode(addressHRP, convData)
	if err != nil {
		return "", fmt.Errorf("%w: address encoding: %v", ErrDecode, err)
	}
	return encoded, nil
}

// Action is the closed set of contract functions the indexer understands
type Action int

const (
	ActionUnknown Action = iota
	ActionRegisterDomain
	ActionExtendDomain
	ActionRegisterSubdomain
	ActionUpdatePrimaryAddress
	ActionRemoveSubdomain
	ActionTransferDomain
	ActionUpdateOverview
	ActionUpdateSocials
	ActionUpdateWallets
	ActionUpdateTextRecord
)

var actionNames = map[string]Action{
	"register_domain":          ActionRegisterDomain,
	"extend_domain":            ActionExtendDomain,
	"register_sub_domain":      ActionRegisterSubdomain,
	"update_primary_address":   ActionUpdatePrimaryAddress,
	"remove_sub_domain":        ActionRemoveSubdomain,
	"transfer_domain":          ActionTransferDomain,
	"update_domain_overview":   ActionUpdateOverview,
	"update_domain_socials":    ActionUpdateSocials,
	"update_domain_wallets":    ActionUpdateWallets,
	"update_domain_textrecord": ActionUpdateTextRecord,
}

// ParseAction classifies a transaction's function field. Anything outside the
// ten known names, including the empty string, maps to ActionUnknown.
func ParseAction(name string) Action {
	if action, ok := actionNames[name]; ok {
		return action
	}
	return ActionUnknown
}

// String returns the on-chain function name of the action
func (a Action) String() string {
	for name, action := range actionNames {
		if action == a {
			return name
		}
	}
	return "unknown"
}

// layout pins the positional argument schema of one contract function: the
// minimum split length and the index of each consumed field. A contract ABI
// change is a one-place edit here.
type layout struct {
	minArgs int
	name    int
	extra   []int
}

var argTable = map[Action]layout{
	ActionRegisterDomain:       {minArgs: 6, name: 4, extra: []int{5}},    // duration
	ActionExtendDomain:         {minArgs: 12, name: 10, extra: []int{11}}, // duration
	ActionRegisterSubdomain:    {minArgs: 12, name: 10, extra: []int{11}}, // owner pubkey
	ActionUpdatePrimaryAddress: {minArgs: 7, name: 6},
	ActionRemoveSubdomain:      {minArgs: 11, name: 10},
	ActionTransferDomain:       {minArgs: 8, name: 6, extra: []int{7}}, // new owner pubkey
	ActionUpdateOverview:       {minArgs: 12, name: 6, extra: []int{7, 8, 9, 10, 11}},
	ActionUpdateSocials:        {minArgs: 13, name: 6, extra: []int{7, 8, 9, 10, 11, 12}},
	ActionUpdateWallets:        {minArgs: 10, name: 6, extra: []int{7, 8, 9}},
	ActionUpdateTextRecord:     {minArgs: 7, name: 6},
}

// fields extracts and byte-decodes the positional fields of an action,
// returning the decoded name followed by the decoded extra fields in table
// order. Index out of range is a decode error, never a corrupted value.
func fields(action Action, args []string) (string, []string, error) {
	l, ok := argTable[action]
	if !ok {
		return "", nil, fmt.Errorf("%w: no argument layout for action %s", ErrDecode, action)
	}
	if len(args) < l.minArgs {
		return "", nil, fmt.Errorf("%w: %s needs %d arguments, got %d", ErrDecode, action, l.minArgs, len(args))
	}

	name := DecodeByteString(args[l.name])
	extras := make([]string, 0, len(l.extra))
	for _, idx := range l.extra {
		extras = append(extras, args[idx])
	}
	return name, extras, nil
}

// RegisterArgs are the decoded arguments of register_domain
type RegisterArgs struct {
	Name     string
	Duration int
}

// DecodeRegister decodes a register_domain argument list
func DecodeRegister(args []string) (RegisterArgs, error) {
	name, extras, err := fields(ActionRegisterDomain, args)
	if err != nil {
		return RegisterArgs{}, err
	}
	duration, err := parseDuration(extras[0])
	if err != nil {
		return RegisterArgs{}, err
	}
	return RegisterArgs{Name: name, Duration: duration}, nil
}

// ExtendArgs are the decoded arguments of extend_domain
type ExtendArgs struct {
	Name     string
	Duration int
}

// DecodeExtend decodes an extend_domain argument list
func DecodeExtend(args []string) (ExtendArgs, error) {
	name, extras, err := fields(ActionExtendDomain, args)
	if err != nil {
		return ExtendArgs{}, err
	}
	duration, err := parseDuration(extras[0])
	if err != nil {
		return ExtendArgs{}, err
	}
	return ExtendArgs{Name: name, Duration: duration}, nil
}

// SubdomainArgs are the decoded arguments of register_sub_domain
type SubdomainArgs struct {
	Name         string
	OwnerAddress string
}

// DecodeSubdomain decodes a register_sub_domain argument list
func DecodeSubdomain(args []string) (SubdomainArgs, error) {
	name, extras, err := fields(ActionRegisterSubdomain, args)
	if err != nil {
		return SubdomainArgs{}, err
	}
	owner, err := DecodeAddress(extras[0])
	if err != nil {
		return SubdomainArgs{}, err
	}
	return SubdomainArgs{Name: name, OwnerAddress: owner}, nil
}

// NameArgs carries the single decoded name argument shared by
// update_primary_address and remove_sub_domain
type NameArgs struct {
	Name string
}

// DecodePrimaryAddress decodes an update_primary_address argument list
func DecodePrimaryAddress(args []string) (NameArgs, error) {
	name, _, err := fields(ActionUpdatePrimaryAddress, args)
	if err != nil {
		return NameArgs{}, err
	}
	return NameArgs{Name: name}, nil
}

// DecodeRemoveSubdomain decodes a remove_sub_domain argument list
func DecodeRemoveSubdomain(args []string) (NameArgs, error) {
	name, _, err := fields(ActionRemoveSubdomain, args)
	if err != nil {
		return NameArgs{}, err
	}
	return NameArgs{Name: name}, nil
}

// TransferArgs are the decoded arguments of transfer_domain
type TransferArgs struct {
	Name     string
	NewOwner string
}

// DecodeTransfer decodes a transfer_domain argument list
func DecodeTransfer(args []string) (TransferArgs, error) {
	name, extras, err := fields(ActionTransferDomain, args)
	if err != nil {
		return TransferArgs{}, err
	}
	newOwner, err := DecodeAddress(extras[0])
	if err != nil {
		return TransferArgs{}, err
	}
	return TransferArgs{Name: name, NewOwner: newOwner}, nil
}

// OverviewArgs are the decoded arguments of update_domain_overview
type OverviewArgs struct {
	Name     string
	Username string
	Avatar   string
	Location string
	Website  string
	Shortbio string
}

// DecodeOverview decodes an update_domain_overview argument list
func DecodeOverview(args []string) (OverviewArgs, error) {
	name, extras, err := fields(ActionUpdateOverview, args)
	if err != nil {
		return OverviewArgs{}, err
	}
	return OverviewArgs{
		Name:     name,
		Username: DecodeByteString(extras[0]),
		Avatar:   DecodeByteString(extras[1]),
		Location: DecodeByteString(extras[2]),
		Website:  DecodeByteString(extras[3]),
		Shortbio: DecodeByteString(extras[4]),
	}, nil
}

// SocialsArgs are the decoded arguments of update_domain_socials
type SocialsArgs struct {
	Name      string
	Telegram  string
	Discord   string
	Twitter   string
	Medium    string
	Facebook  string
	OtherLink string
}

// DecodeSocials decodes an update_domain_socials argument list
func DecodeSocials(args []string) (SocialsArgs, error) {
	name, extras, err := fields(ActionUpdateSocials, args)
	if err != nil {
		return SocialsArgs{}, err
	}
	return SocialsArgs{
		Name:      name,
		Telegram:  DecodeByteString(extras[0]),
		Discord:   DecodeByteString(extras[1]),
		Twitter:   DecodeByteString(extras[2]),
		Medium:    DecodeByteString(extras[3]),
		Facebook:  DecodeByteString(extras[4]),
		OtherLink: DecodeByteString(extras[5]),
	}, nil
}

// WalletsArgs are the decoded arguments of update_domain_wallets
type WalletsArgs struct {
	Name       string
	WalletEgld string
	WalletBtc  string
	WalletEth  string
}

// DecodeWallets decodes an update_domain_wallets argument list
func DecodeWallets(args []string) (WalletsArgs, error) {
	name, extras, err := fields(ActionUpdateWallets, args)
	if err != nil {
		return WalletsArgs{}, err
	}
	return WalletsArgs{
		Name:       name,
		WalletEgld: DecodeByteString(extras[0]),
		WalletBtc:  DecodeByteString(extras[1]),
		WalletEth:  DecodeByteString(extras[2]),
	}, nil
}

// TextRecordArgs are the decoded arguments of update_domain_textrecord
type TextRecordArgs struct {
	Name    string
	Records models.TextRecords
}

// DecodeTextRecords decodes an update_domain_textrecord argument list. Every
// argument from index 7 onward is one record, itself split on `@` into key
// and value after byte-decoding; missing parts default to empty strings and
// the entry is still included.
func DecodeTextRecords(args []string) (TextRecordArgs, error) {
	name, _, err := fields(ActionUpdateTextRecord, args)
	if err != nil {
		return TextRecordArgs{}, err
	}

	records := make(models.TextRecords, 0, len(args)-7)
	for _, raw := range args[7:] {
		parts := strings.Split(DecodeByteString(raw), "@")
		record := models.TextRecord{}
		if len(parts) > 0 {
			record.Key = parts[0]
		}
		if len(parts) > 1 {
			record.Value = parts[1]
		}
		records = append(records, record)
	}
	return TextRecordArgs{Name: name, Records: records}, nil
}

// parseDuration parses a duration argument as a base-10 integer, preserving
// the legacy decoder's numeric convention
func parseDuration(raw string) (int, error) {
	duration, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: bad duration %q: %v", ErrDecode, raw, err)
	}
	return duration, nil
}
