package domain

import (
	"fmt"
	"strings"
)

// AssetType distinguishes short and long asset code encodings.
type AssetType string

const (
	AssetTypeNative      AssetType = "native"
	AssetTypeAlphaNum4   AssetType = "alphaNum4"
	AssetTypeAlphaNum12  AssetType = "alphaNum12"
	AssetTypePoolShare   AssetType = "poolShare"
	maxAlphaNum4CodeLen            = 4
	maxAlphaNum12CodeLen           = 12
)

// AssetTypeForCode returns the encoding an issued asset code uses.
func AssetTypeForCode(code string) AssetType {
	if len(code) <= maxAlphaNum4CodeLen {
		return AssetTypeAlphaNum4
	}

	return AssetTypeAlphaNum12
}

// Asset identifies an issued asset.
type Asset struct {
	Code   string
	Issuer string
	Type   AssetType
}

// NewAsset builds the asset the collector filters on. The type is derived
// from the code length.
func NewAsset(code, issuer string) (Asset, error) {
	code = strings.TrimSpace(code)
	issuer = strings.TrimSpace(issuer)

	if code == "" || len(code) > maxAlphaNum12CodeLen {
		return Asset{}, fmt.Errorf("%w: code %q must have 1 to %d characters", ErrInvalidAsset, code, maxAlphaNum12CodeLen)
	}
	if issuer == "" {
		return Asset{}, fmt.Errorf("%w: issuer is required", ErrInvalidAsset)
	}

	return Asset{
		Code:   code,
		Issuer: issuer,
		Type:   AssetTypeForCode(code),
	}, nil
}

// Matches reports whether other is the same asset. Code, issuer and type
// must all be equal.
func (a Asset) Matches(other Asset) bool {
	return a.Type == other.Type && a.Code == other.Code && a.Issuer == other.Issuer
}

func (a Asset) String() string {
	if a.Type == AssetTypeNative {
		return string(AssetTypeNative)
	}

	return a.Code + ":" + a.Issuer
}
