/*
split.go - Deterministic percentage split

PURPOSE:
  Computes exact per-line durations for a preset applied to a required
  total, in integer seconds. This is the one place in the system that
  demands exact arithmetic: the sum of the outputs must equal the
  floor-rounded total bit-for-bit, every time.

ROUNDING POLICY:
  1. Each line's raw share = total * percentage / 100, tracked exactly
     with decimal arithmetic (dividing by 100 is a base-10 exponent
     shift, so no precision is ever lost).
  2. Truncate each share to whole seconds.
  3. Distribute the leftover seconds (at most lines-1, typically 0 or 1)
     one at a time to the lines with the largest fractional remainder,
     ties broken by original preset order.

  INVARIANT: sum(durations) == floor(total * sum(percentages) / 100),
  and every duration is within 1 second of its exact share.
*/
package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Split computes per-line durations for a preset and a required total.
// The result preserves preset line order and always contains every line,
// including zero-duration lines when the total is 0 or a share truncates
// to nothing. Callers decide what to do with zero-duration lines; the
// engine never submits them.
func Split(preset Preset, totalSeconds int) []LineShare {
	shares := make([]LineShare, len(preset.Lines))
	fractions := make([]decimal.Decimal, len(preset.Lines))

	total := decimal.NewFromInt(int64(totalSeconds))
	sumRaw := decimal.Zero
	assigned := 0

	for i, line := range preset.Lines {
		// Shift(-2) is the exact /100: a decimal exponent move, not a division.
		raw := total.Mul(line.Percentage).Shift(-2)
		whole := raw.Floor()

		shares[i] = LineShare{Line: line, Seconds: int(whole.IntPart())}
		fractions[i] = raw.Sub(whole)
		sumRaw = sumRaw.Add(raw)
		assigned += shares[i].Seconds
	}

	// Leftover whole seconds lost to truncation.
	leftover := int(sumRaw.Floor().IntPart()) - assigned
	if leftover <= 0 {
		return shares
	}

	// Largest fractional remainder first; SliceStable keeps preset order
	// for equal remainders.
	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]].GreaterThan(fractions[order[b]])
	})

	for k := 0; k < leftover && k < len(order); k++ {
		shares[order[k]].Seconds++
	}
	return shares
}
