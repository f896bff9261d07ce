package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var txnNow = time.Date(2026, time.March, 18, 15, 30, 0, 0, time.UTC)

func txn(at time.Time, status, typ string, amount float64) TransactionRow {
	return TransactionRow{TransactionDatetime: at, TransactionStatus: status, TransactionType: typ, Amount: amount}
}

func TestHourlyDistribution_WindowAndSlots(t *testing.T) {
	rows := []TransactionRow{
		txn(txnNow.Add(-1*time.Hour), "COMPLETED", "TRANSFER", 10),
		txn(txnNow.Add(-90*time.Minute), "COMPLETED", "TRANSFER", 10),
		txn(txnNow.Add(-23*time.Hour), "COMPLETED", "DEPOSIT", 10),
		// outside the window or not completed
		txn(txnNow.Add(-24*time.Hour), "COMPLETED", "DEPOSIT", 10),
		txn(txnNow.Add(-2*time.Hour), "PENDING", "TRANSFER", 10),
		txn(txnNow.Add(10*time.Minute), "COMPLETED", "TRANSFER", 10),
	}
	hours := HourlyDistribution(rows, txnNow)
	require.Len(t, hours, 24)
	assert.Equal(t, 2, hours[14].Transactions)
	assert.Equal(t, 1, hours[16].Transactions)
	assert.Equal(t, 0, hours[15].Transactions)
	assert.Equal(t, "14:00", hours[14].Label)
	assert.Equal(t, "14:00", PeakHour(hours))
}

func TestPeakHour_EmptyAndTies(t *testing.T) {
	assert.Equal(t, "0:00", PeakHour(HourlyDistribution(nil, txnNow)))

	hours := HourlyDistribution(nil, txnNow)
	hours[9].Transactions = 3
	hours[11].Transactions = 3
	assert.Equal(t, "9:00", PeakHour(hours))
}

func TestStats(t *testing.T) {
	counts := TransactionCounts{Total: 45, Completed: 40, Pending: 3, CompletedVolume: 125000.5}
	recent := []TransactionRow{
		txn(txnNow.Add(-1*time.Hour), "COMPLETED", "transfer", 10),
		txn(txnNow.Add(-3*time.Hour), "COMPLETED", "DEPOSIT", 10),
		txn(txnNow.Add(-4*time.Hour), "COMPLETED", "TRANSFER", 10),
		txn(txnNow.Add(-5*time.Hour), "COMPLETED", "", 10),
	}
	s := Stats(counts, recent, txnNow)

	assert.Equal(t, 45, s.TotalTransactions)
	assert.Equal(t, 125000.5, s.TotalVolume)
	assert.Equal(t, 88.9, s.SuccessRate)
	assert.Equal(t, 3, s.PendingTransactions)
	assert.Equal(t, 2, s.DailyAverage) // 45/30 = 1.5 rounds up
	assert.Equal(t, []TypeCount{{Type: "TRANSFER", Count: 2}, {Type: "DEPOSIT", Count: 1}, {Type: "OTHER", Count: 1}}, s.TypeDistribution)
}

func TestStats_ZeroTotals(t *testing.T) {
	s := Stats(TransactionCounts{}, nil, txnNow)
	assert.Equal(t, 0.0, s.SuccessRate)
	assert.Equal(t, 0, s.DailyAverage)
	assert.Equal(t, "0:00", s.PeakHour)
	assert.Len(t, s.HourlyDistribution, 24)
	assert.NotNil(t, s.TypeDistribution)
}

func TestTransactionTrend(t *testing.T) {
	rows := []TransactionRow{
		txn(time.Date(2026, time.March, 18, 9, 0, 0, 0, time.UTC), "COMPLETED", "", 1500),
		txn(time.Date(2026, time.March, 18, 10, 0, 0, 0, time.UTC), "COMPLETED", "", 500),
		txn(time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC), "COMPLETED", "", 250),
		txn(time.Date(2026, time.March, 11, 23, 59, 0, 0, time.UTC), "COMPLETED", "", 999), // before window
		txn(time.Date(2026, time.March, 17, 8, 0, 0, 0, time.UTC), "FAILED", "", 700),
	}
	trend := TransactionTrend(rows, txnNow, 7)
	require.Len(t, trend, 7)

	assert.Equal(t, "2026-03-12", trend[0].Date)
	assert.Equal(t, "Thu", trend[0].Label)
	assert.Equal(t, 1, trend[0].Transactions)
	assert.Equal(t, 0.25, trend[0].Volume)

	assert.Equal(t, 0, trend[5].Transactions)

	assert.Equal(t, "2026-03-18", trend[6].Date)
	assert.Equal(t, 2, trend[6].Transactions)
	assert.Equal(t, 2.0, trend[6].Volume)

	assert.Empty(t, TransactionTrend(rows, txnNow, 0))
}
