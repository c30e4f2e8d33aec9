// internal/recommendation/service_test.go
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"rental-workers/internal/common/logger"
	"rental-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type fakeAnalyzer struct {
	result *ExtractionResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (*ExtractionResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeFinder struct {
	responses [][]models.Vehicle
	err       error
	calls     []Predicates
}

func (f *fakeFinder) FindVehicles(_ context.Context, p Predicates) ([]models.Vehicle, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	i := len(f.calls) - 1
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, nil
}

func sevenSeaters(n int) []models.Vehicle {
	out := make([]models.Vehicle, n)
	for i := range out {
		out[i] = models.Vehicle{ID: int64(i + 1), Name: "Innova", Brand: "Toyota", Type: "MPV", Seat: 7, DailyPrice: int64(450000 + i*10000)}
	}
	return out
}

func newTestService(t *testing.T, a Analyzer, f VehicleFinder) *Service {
	return NewService(a, f, DefaultOptions(), createTestLogger(t), nil)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestRecommend_FamilyOfSix(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &ExtractionResult{People: float64(6), Notes: "Keluarga 6 orang"}}
	finder := &fakeFinder{responses: [][]models.Vehicle{sevenSeaters(3)}}

	resp, err := newTestService(t, analyzer, finder).Recommend(context.Background(), "keluarga 6 orang")
	require.NoError(t, err)

	assert.Equal(t, intPtr(6), resp.Filters.People)
	assert.Len(t, resp.Results, 3)
	for _, v := range resp.Results {
		assert.GreaterOrEqual(t, v.Seat, 6)
	}
	assert.Equal(t, Meta{Total: 3, Relaxed: false}, resp.Meta)
	assert.Equal(t, "Keluarga 6 orang", resp.Reason)

	require.Len(t, finder.calls, 1)
	assert.True(t, finder.calls[0].HasDenyList())
}

func TestRecommend_RelaxesOnceWhenStrictEmpty(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &ExtractionResult{People: float64(6)}}
	finder := &fakeFinder{responses: [][]models.Vehicle{{}, sevenSeaters(2)}}

	resp, err := newTestService(t, analyzer, finder).Recommend(context.Background(), "keluarga 6 orang")
	require.NoError(t, err)

	require.Len(t, finder.calls, 2)
	assert.Equal(t, 6, *finder.calls[0].MinSeats)
	assert.True(t, finder.calls[0].HasDenyList())
	assert.Equal(t, 5, *finder.calls[1].MinSeats)
	assert.False(t, finder.calls[1].HasDenyList())
	assert.True(t, resp.Meta.Relaxed)
	assert.Equal(t, 2, resp.Meta.Total)
	assert.Equal(t, DefaultReason, resp.Reason)
}

func TestRecommend_RelaxedStillEmpty(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &ExtractionResult{People: float64(9)}}
	finder := &fakeFinder{}

	resp, err := newTestService(t, analyzer, finder).Recommend(context.Background(), "rombongan 9 orang")
	require.NoError(t, err)

	require.Len(t, finder.calls, 2)
	assert.Equal(t, 8, *finder.calls[1].MinSeats)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.True(t, resp.Meta.Relaxed)
}

func TestRecommend_NoRelaxationWithoutSeats(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &ExtractionResult{City: "Bali"}}
	finder := &fakeFinder{}

	resp, err := newTestService(t, analyzer, finder).Recommend(context.Background(), "mobil di Bali")
	require.NoError(t, err)

	assert.Len(t, finder.calls, 1)
	assert.False(t, resp.Meta.Relaxed)
	assert.Equal(t, 0, resp.Meta.Total)
}

func TestRecommend_OriginCityFilter(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &ExtractionResult{OriginCity: "Jakarta", City: "Bandung"}}
	finder := &fakeFinder{responses: [][]models.Vehicle{sevenSeaters(1)}}

	resp, err := newTestService(t, analyzer, finder).Recommend(context.Background(), "dari Jakarta ke Bandung")
	require.NoError(t, err)

	assert.Equal(t, "Jakarta", *finder.calls[0].BranchCity)
	assert.Equal(t, "Jakarta", *resp.Filters.City)
	assert.Equal(t, "Jakarta", *resp.Filters.OriginCity)
}

// ==========================
// Error Handling Tests
// ==========================

func TestRecommend_EmptyPromptNeverCallsAnalyzer(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\n\t"} {
		analyzer := &fakeAnalyzer{}
		finder := &fakeFinder{}

		_, err := newTestService(t, analyzer, finder).Recommend(context.Background(), prompt)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
		assert.Equal(t, 0, analyzer.calls)
		assert.Empty(t, finder.calls)
	}
}

func TestRecommend_UpstreamUnavailablePropagates(t *testing.T) {
	analyzer := &fakeAnalyzer{err: fmt.Errorf("%w: status 503", ErrUpstreamUnavailable)}
	finder := &fakeFinder{}

	_, err := newTestService(t, analyzer, finder).Recommend(context.Background(), "mobil murah")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Empty(t, finder.calls)

	std := AsStandardError(err)
	assert.Equal(t, "AI_SERVICE_UNAVAILABLE", string(std.Code))
}

func TestRecommend_OtherAnalyzerErrorsDegrade(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("invalid character 'x'")}
	finder := &fakeFinder{responses: [][]models.Vehicle{sevenSeaters(1)}}

	resp, err := newTestService(t, analyzer, finder).Recommend(context.Background(), "keluarga 6 orang")
	require.NoError(t, err)

	assert.Contains(t, resp.Reason, AnalysisErrorMarker)
	assert.Equal(t, intPtr(6), resp.Filters.People)
	assert.True(t, finder.calls[0].HasDenyList())
}

func TestRecommend_NilResultDegrades(t *testing.T) {
	resp, err := newTestService(t, &fakeAnalyzer{}, &fakeFinder{}).Recommend(context.Background(), "7 penumpang")
	require.NoError(t, err)
	assert.Contains(t, resp.Reason, AnalysisErrorMarker)
	assert.Equal(t, intPtr(7), resp.Filters.People)
}

func TestAnalyze_PropagateOrDegrade(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name         string
		ctx          context.Context
		analyzer     *fakeAnalyzer
		wantUpstream bool
		wantDegraded bool
	}{
		{"upstream error", context.Background(), &fakeAnalyzer{err: fmt.Errorf("%w: 503", ErrUpstreamUnavailable)}, true, false},
		{"error after context ends", cancelled, &fakeAnalyzer{err: errors.New("read: connection reset")}, true, false},
		{"other error", context.Background(), &fakeAnalyzer{err: errors.New("bad json")}, false, true},
		{"nil result", context.Background(), &fakeAnalyzer{}, false, true},
		{"usable result", context.Background(), &fakeAnalyzer{result: &ExtractionResult{City: "Bali"}}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Analyze(tt.ctx, tt.analyzer, "mobil", createTestLogger(t))
			if tt.wantUpstream {
				assert.ErrorIs(t, err, ErrUpstreamUnavailable)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDegraded, result.IsDegraded())
		})
	}
}

func TestRecommend_QueryErrorSurfaces(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &ExtractionResult{People: float64(6)}}
	finder := &fakeFinder{err: errors.New("connection reset")}

	_, err := newTestService(t, analyzer, finder).Recommend(context.Background(), "keluarga 6 orang")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict query")
	assert.Len(t, finder.calls, 1)
	assert.Equal(t, "INTERNAL_ERROR", string(AsStandardError(err).Code))
}

func TestRecommend_InvertedBudgetPreserved(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &ExtractionResult{BudgetPerDay: Budget{Min: float64(600000), Max: float64(300000)}}}
	finder := &fakeFinder{}

	resp, err := newTestService(t, analyzer, finder).Recommend(context.Background(), "premium tapi murah")
	require.NoError(t, err)
	assert.Equal(t, floatPtr(600000), finder.calls[0].Price.Min)
	assert.Equal(t, floatPtr(300000), finder.calls[0].Price.Max)
	assert.Equal(t, floatPtr(600000), resp.Filters.Min)
}
