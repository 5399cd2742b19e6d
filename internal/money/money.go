// Package money converts the brokerage API's fixed-point representation
// (integer units plus a nano fraction in [0, 1e9)) to exact decimals and
// back. The arithmetic is exact; float64 is never involved, so sums over
// many positions carry no rounding drift.
package money

import (
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"github.com/shopspring/decimal"
)

// combine computes units + nano/1e9 exactly.
func combine(units int64, nano int32) decimal.Decimal {
	return decimal.New(units, 0).Add(decimal.New(int64(nano), -9))
}

// ToDecimal converts a MoneyValue to an exact decimal. A nil input yields
// nil, mirroring an absent field upstream.
func ToDecimal(m *pb.MoneyValue) *decimal.Decimal {
	if m == nil {
		return nil
	}
	d := combine(m.Units, m.Nano)
	return &d
}

// ToDecimalOrZero is ToDecimal with absent values collapsed to zero, for
// fields the outbound schema treats as required.
func ToDecimalOrZero(m *pb.MoneyValue) decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	return combine(m.Units, m.Nano)
}

// QuotationToDecimal converts a unitless Quotation to an exact decimal.
// A nil input yields nil.
func QuotationToDecimal(q *pb.Quotation) *decimal.Decimal {
	if q == nil {
		return nil
	}
	d := combine(q.Units, q.Nano)
	return &d
}

// QuotationToDecimalOrZero is QuotationToDecimal with nil collapsed to zero.
func QuotationToDecimalOrZero(q *pb.Quotation) decimal.Decimal {
	if q == nil {
		return decimal.Zero
	}
	return combine(q.Units, q.Nano)
}

// ToQuotation splits a decimal back into the fixed-point wire form. For
// negative values both parts carry the sign, matching the upstream
// convention (-1.5 → units -1, nano -500000000).
func ToQuotation(d decimal.Decimal) *pb.Quotation {
	units := d.IntPart()
	nano := d.Sub(decimal.New(units, 0)).Shift(9).IntPart()
	return &pb.Quotation{Units: units, Nano: int32(nano)}
}
