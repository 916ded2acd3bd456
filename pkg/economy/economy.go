// Package economy is a chain-free forward projection of the game's pool
// flows. It reuses the distribution formulas of the prediction engine but
// models level progression with float arithmetic; it is descriptive output,
// not a bit-exact replica.
package economy

import (
	"fmt"
	"io"
	"math"

	"github.com/degenlabs/purge-predictor-go/pkg/game"
)

const (
	bondBpsMap   = 5000
	bondBpsDaily = 2000
	bondBpsBig   = 5000
	vaultSplit   = 0.30 // share of bond spend routed to the vault
	rewardReturn = 0.20 // share of bond spend returned to the reward pool
)

// Row is one captured sample of the projection.
type Row struct {
	Level          int
	RewardPool     float64
	Mints          float64
	MapJackpot     float64
	EarlyJackpots  float64
	NormalJackpots float64
	VaultTotal     float64
}

// Project runs the level loop and captures a sample every sampleEvery
// levels.
func Project(levels, sampleEvery int) []Row {
	var (
		rewardPool       float64
		currentPrizePool float64
		nextPrizePool    float64
		vaultTotal       float64
		rows             []Row
	)

	bond := func(amount float64, bps float64) (vaultCut, rewardCut float64) {
		spend := amount * bps / 10000.0
		return spend * vaultSplit, spend * rewardReturn
	}

	for lvl := 1; lvl <= levels; lvl++ {
		// Purchase phase growth: mint revenue compounds 5% per level.
		mints := 150.0 * math.Pow(1.05, float64(lvl-1))
		nextPrizePool += mints

		// End of purchase: fold the accumulated pool in and rebalance.
		currentPrizePool += nextPrizePool
		nextPrizePool = 0

		total := rewardPool + currentPrizePool
		rewardPool = total * float64(rewardPoolPercentTimes2(lvl)) / 200.0
		jackpotBase := total - rewardPool

		mapPct := 0.30
		if lvl%20 == 16 {
			mapPct = 0.40
		}
		mapWei := jackpotBase * mapPct
		currentPrizePool = jackpotBase - mapWei

		vc, rc := bond(mapWei, bondBpsMap)
		vaultTotal += vc
		rewardPool += rc

		// Early jackpots: 11 boosted 2% reward-pool slices with cycle
		// scaling (floor 0.5).
		earlyTotal := 0.0
		for i := 0; i < 11; i++ {
			cycle := float64((lvl - 1) % 100)
			scale := (10000.0 - cycle*5000.0/99.0) / 10000.0
			if scale < 0.5 {
				scale = 0.5
			}
			slice := rewardPool * 200.0 / 10000.0 * scale

			vc, rc := bond(slice, bondBpsDaily)
			vaultTotal += vc
			rewardPool += rc - slice
			earlyTotal += slice
		}

		// Normal daily jackpots over the shared bps schedule.
		normalTotal := 0.0
		for _, bps := range game.DailyJackpotBps {
			daily := currentPrizePool * float64(bps) / 10000.0

			vc, rc := bond(daily, bondBpsDaily)
			vaultTotal += vc
			rewardPool += rc
			currentPrizePool -= daily
			normalTotal += daily
		}

		// BAF every 10th level (25% of the reward pool at level 50, else 10%).
		if lvl%10 == 0 {
			pct := 0.10
			if lvl == 50 {
				pct = 0.25
			}
			baf := rewardPool * pct
			vc, rc := bond(baf, bondBpsBig)
			vaultTotal += vc
			rewardPool += rc - baf
		}

		// Decimator at levels ending in 5 from 15 on, except 95.
		if lvl%10 == 5 && lvl >= 15 && lvl != 95 {
			dec := rewardPool * 0.15
			vc, rc := bond(dec, bondBpsBig)
			vaultTotal += vc
			rewardPool += rc - dec
		}

		// Exterminator payout clears the prize pool at level end.
		currentPrizePool = 0

		if sampleEvery > 0 && lvl%sampleEvery == 0 {
			rows = append(rows, Row{
				Level:          lvl,
				RewardPool:     rewardPool,
				Mints:          mints,
				MapJackpot:     mapWei,
				EarlyJackpots:  earlyTotal,
				NormalJackpots: normalTotal,
				VaultTotal:     vaultTotal,
			})
		}
	}
	return rows
}

// rewardPoolPercentTimes2 is the reward-pool allocation schedule in
// half-percent units, capped at 196 (98%).
func rewardPoolPercentTimes2(lvl int) int {
	var base int
	switch {
	case lvl <= 4:
		base = (8 + (lvl-1)*8) * 2
	case lvl <= 79:
		base = 64 + (lvl - 4)
	default:
		base = 130
	}
	base += 20
	if base > 196 {
		base = 196
	}
	return base
}

// RenderTable writes the projection as the familiar per-level table.
func RenderTable(w io.Writer, rows []Row) {
	fmt.Fprintf(w, "%-5s | %-12s | %-12s | %-12s | %-12s | %-13s | %-12s\n",
		"Lvl", "RewardPool", "NextPool(In)", "MapJackpot", "EarlyJackpot", "NormalJackpot", "Vault(Cum)")
	fmt.Fprintln(w, "-----------------------------------------------------------------------------------------------")
	for _, r := range rows {
		fmt.Fprintf(w, "%-5d | %-12.2f | %-12.2f | %-12.2f | %-12.2f | %-13.2f | %-12.2f\n",
			r.Level, r.RewardPool, r.Mints, r.MapJackpot, r.EarlyJackpots, r.NormalJackpots, r.VaultTotal)
	}
}
