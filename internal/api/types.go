package api

import (
	"time"

	"options-clearinghouse/internal/config"
)

// DashboardSnapshot represents the complete dashboard state
type DashboardSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	// Registered option types
	Types []OptionTypeStatus `json:"types"`

	// Aggregate custody across all types, formatted per asset decimals
	Custody []CustodyEntry `json:"custody"`

	// Configuration
	Config ConfigSummary `json:"config"`
}

// OptionTypeStatus represents per-option-type state
type OptionTypeStatus struct {
	OptionID string `json:"option_id"`

	UnderlyingAsset  string `json:"underlying_asset"`
	UnderlyingAmount uint64 `json:"underlying_amount"` // per contract
	ExerciseAsset    string `json:"exercise_asset"`
	ExerciseAmount   uint64 `json:"exercise_amount"` // per contract

	ExerciseTimestamp int64 `json:"exercise_timestamp"`
	ExpiryTimestamp   int64 `json:"expiry_timestamp"`

	// Settlement state
	BucketCount      int    `json:"bucket_count"`
	AvailableBuckets int    `json:"available_buckets"`
	TotalWritten     uint64 `json:"total_written"`
	TotalExercised   uint64 `json:"total_exercised"`
	ClaimsTotal      int    `json:"claims_total"`
	ClaimsLive       int    `json:"claims_live"`

	// Custody held for this type, formatted per asset decimals
	UnderlyingHeld string `json:"underlying_held"`
	ExerciseHeld   string `json:"exercise_held"`
	DustReady      bool   `json:"dust_ready"`
}

// CustodyEntry is one asset's total custodied balance.
type CustodyEntry struct {
	Asset    string `json:"asset"`
	Decimals int32  `json:"decimals"`
	Amount   string `json:"amount"` // display units
}

// ConfigSummary represents operational configuration
type ConfigSummary struct {
	Custodian      string `json:"custodian"`
	DustSink       string `json:"dust_sink"`
	DataDir        string `json:"data_dir"`
	IndexerEnabled bool   `json:"indexer_enabled"`
}

// AmountsResponse is the asset split returned by redeem and sweep.
type AmountsResponse struct {
	UnderlyingAsset  string `json:"underlying_asset"`
	UnderlyingAmount string `json:"underlying_amount"`
	ExerciseAsset    string `json:"exercise_asset"`
	ExerciseAmount   string `json:"exercise_amount"`
}

// PositionResponse is the contract-count split for a claim.
type PositionResponse struct {
	ClaimID     string `json:"claim_id"`
	Written     uint64 `json:"written"`
	Exercised   uint64 `json:"exercised"`
	Unexercised uint64 `json:"unexercised"`
	Redeemed    bool   `json:"redeemed"`
}

// NewOptionTypeRequest carries the immutable terms of a new type.
type NewOptionTypeRequest struct {
	UnderlyingAsset   string `json:"underlying_asset"`
	UnderlyingAmount  uint64 `json:"underlying_amount"`
	ExerciseAsset     string `json:"exercise_asset"`
	ExerciseAmount    uint64 `json:"exercise_amount"`
	ExerciseTimestamp int64  `json:"exercise_timestamp"`
	ExpiryTimestamp   int64  `json:"expiry_timestamp"`
}

// WriteRequest locks collateral against an option or existing claim token.
type WriteRequest struct {
	Actor   string `json:"actor"`
	TokenID string `json:"token_id"`
	Amount  uint64 `json:"amount"`
}

// ExerciseRequest exercises against a fungible option token.
type ExerciseRequest struct {
	Actor   string `json:"actor"`
	TokenID string `json:"token_id"`
	Amount  uint64 `json:"amount"`
}

// RedeemRequest retires a claim token after expiry.
type RedeemRequest struct {
	Actor   string `json:"actor"`
	ClaimID string `json:"claim_id"`
}

// SweepRequest routes an expired type's rounding dust to the sink.
type SweepRequest struct {
	OptionID string `json:"option_id"`
}

// NewConfigSummary creates config summary from config
func NewConfigSummary(cfg config.Config) ConfigSummary {
	return ConfigSummary{
		Custodian:      cfg.Custodian,
		DustSink:       cfg.DustSink,
		DataDir:        cfg.Store.DataDir,
		IndexerEnabled: cfg.Indexer.Enabled,
	}
}
