package services

import (
	"errors"
	"testing"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *ChargeConfig {
	return &ChargeConfig{
		MonthlyInterestRate:       0.03,
		MonthlyPenaltyRate:        0.02,
		GracePeriodDays:           0,
		DailyPenaltyThresholdDays: 3,
		MaxPenaltyMultiplier:      3,
		MaturityPeriodDays:        30,
		ExpiryPeriodDays:          90,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func testBrackets() []models.ServiceChargeBracket {
	return []models.ServiceChargeBracket{
		{Name: "Bracket 1", MinAmount: 1, MaxAmount: floatPtr(100), Charge: 1},
		{Name: "Bracket 2", MinAmount: 101, MaxAmount: floatPtr(200), Charge: 2},
		{Name: "Bracket 3", MinAmount: 201, MaxAmount: floatPtr(300), Charge: 3},
		{Name: "Bracket 4", MinAmount: 301, MaxAmount: floatPtr(400), Charge: 4},
		{Name: "Bracket 5", MinAmount: 500, MaxAmount: nil, Charge: 5},
	}
}

func TestComputeInterest(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		periods   int
		expected  float64
	}{
		{"one month on 15000", 15000, 0.03, 1, 450},
		{"two months does not compound", 15000, 0.03, 2, 900},
		{"rounds to cents", 3333.33, 0.03, 1, 100},
		{"zero periods", 15000, 0.03, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeInterest(tt.principal, tt.rate, tt.periods))
		})
	}
}

func TestComputePenalty(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name        string
		principal   float64
		daysOverdue int
		expected    float64
	}{
		{"not overdue", 10000, 0, 0},
		{"one day pro-rated", 10000, 1, 6.67},
		{"two days pro-rated", 10000, 2, 13.33},
		{"threshold day charges full month", 10000, 3, 200},
		{"past threshold still one month", 10000, 17, 200},
		{"far past threshold still one month", 10000, 400, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputePenalty(tt.principal, tt.daysOverdue, cfg))
		})
	}
}

func TestComputePenaltyGracePeriod(t *testing.T) {
	cfg := testConfig()
	cfg.GracePeriodDays = 5

	assert.Equal(t, 0.0, ComputePenalty(10000, 5, cfg), "inside grace period")
	assert.NotZero(t, ComputePenalty(10000, 6, cfg), "first day past grace")
}

func TestComputePenaltyCap(t *testing.T) {
	cfg := testConfig()
	// Threshold above 30 days lets the pro-rated path run past one month
	cfg.DailyPenaltyThresholdDays = 200
	cfg.MaxPenaltyMultiplier = 3

	// 150 days pro-rated would be 5 months; the cap holds it at 3
	assert.Equal(t, 600.0, ComputePenalty(10000, 150, cfg))
}

func TestComputeServiceCharge(t *testing.T) {
	brackets := testBrackets()

	tests := []struct {
		name      string
		principal float64
		expected  float64
	}{
		{"lowest bracket", 50, 1},
		{"boundary belongs to lower bracket", 100, 1},
		{"just above boundary", 101, 2},
		{"upper boundary of middle bracket", 300, 3},
		{"start of unbounded bracket", 500, 5},
		{"large amount in unbounded bracket", 15000, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			charge, err := ComputeServiceCharge(tt.principal, brackets)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, charge)
		})
	}
}

func TestComputeServiceChargeGap(t *testing.T) {
	// 401-499 is not covered by any bracket
	_, err := ComputeServiceCharge(450, testBrackets())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestNewLoanChargeComposition(t *testing.T) {
	cfg := testConfig()
	principal := 15000.0

	interest := ComputeInterest(principal, cfg.MonthlyInterestRate, 1)
	charge, err := ComputeServiceCharge(principal, testBrackets())
	require.NoError(t, err)

	assert.Equal(t, 450.0, interest)
	assert.Equal(t, 5.0, charge)
	assert.Equal(t, 15455.0, round2(principal+interest+charge))
}
