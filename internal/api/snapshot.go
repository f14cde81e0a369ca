package api

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"options-clearinghouse/internal/clearing"
	"options-clearinghouse/internal/config"
	"options-clearinghouse/internal/token"
)

// Settlement is the clearinghouse surface the API server depends on.
type Settlement interface {
	TypeStatuses() []clearing.TypeStatus
}

// BuildSnapshot aggregates clearinghouse state into a dashboard snapshot.
// Raw base-unit amounts are rendered as decimal strings at each asset's
// display precision.
func BuildSnapshot(settlement Settlement, assets *token.AssetLedger, cfg config.Config) DashboardSnapshot {
	statuses := settlement.TypeStatuses()

	// Aggregate custody per asset across types.
	custodyTotals := make(map[common.Address]*big.Int)
	addTo := func(asset common.Address, amount *big.Int) {
		if total, ok := custodyTotals[asset]; ok {
			total.Add(total, amount)
			return
		}
		custodyTotals[asset] = new(big.Int).Set(amount)
	}

	apiTypes := make([]OptionTypeStatus, 0, len(statuses))
	for _, st := range statuses {
		addTo(st.Terms.UnderlyingAsset, st.UnderlyingHeld)
		addTo(st.Terms.ExerciseAsset, st.ExerciseHeld)

		apiTypes = append(apiTypes, OptionTypeStatus{
			OptionID:          st.OptionID.Hex(),
			UnderlyingAsset:   st.Terms.UnderlyingAsset.Hex(),
			UnderlyingAmount:  st.Terms.UnderlyingAmount,
			ExerciseAsset:     st.Terms.ExerciseAsset.Hex(),
			ExerciseAmount:    st.Terms.ExerciseAmount,
			ExerciseTimestamp: st.Terms.ExerciseTimestamp,
			ExpiryTimestamp:   st.Terms.ExpiryTimestamp,
			BucketCount:       st.BucketCount,
			AvailableBuckets:  st.AvailableBuckets,
			TotalWritten:      st.TotalWritten,
			TotalExercised:    st.TotalExercised,
			ClaimsTotal:       st.ClaimsTotal,
			ClaimsLive:        st.ClaimsLive,
			UnderlyingHeld:    formatAmount(st.UnderlyingHeld, assets.Decimals(st.Terms.UnderlyingAsset)),
			ExerciseHeld:      formatAmount(st.ExerciseHeld, assets.Decimals(st.Terms.ExerciseAsset)),
			DustReady:         st.DustReady,
		})
	}

	custody := make([]CustodyEntry, 0, len(custodyTotals))
	for asset, total := range custodyTotals {
		d := assets.Decimals(asset)
		custody = append(custody, CustodyEntry{
			Asset:    asset.Hex(),
			Decimals: d,
			Amount:   formatAmount(total, d),
		})
	}

	return DashboardSnapshot{
		Timestamp: time.Now(),
		Types:     apiTypes,
		Custody:   custody,
		Config:    NewConfigSummary(cfg),
	}
}

// formatAmount renders a base-unit amount as a decimal string at the asset's
// display precision.
func formatAmount(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}
