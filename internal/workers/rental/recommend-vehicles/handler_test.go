// internal/workers/rental/recommend-vehicles/handler_test.go
package recommendvehicles

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"rental-workers/internal/common/camunda/camundatest"
	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/recommendation"
	esqueries "rental-workers/internal/workers/data-access/query-elasticsearch/queries"
	pgqueries "rental-workers/internal/workers/data-access/query-postgresql/queries"
)

// ==========================
// Test Helper Functions
// ==========================

var vehicleCols = []string{
	"id", "BranchId", "name", "brand", "type", "plateNumber", "seat",
	"transmission", "fuelType", "year", "dailyPrice", "status",
	"imgUrl", "description", "createdAt", "updatedAt",
	"b_id", "b_name", "b_city", "b_address",
}

var seededAt = time.Date(2025, 11, 11, 15, 56, 40, 0, time.UTC)

type fakeAnalyzer struct {
	result *recommendation.ExtractionResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (*recommendation.ExtractionResult, error) {
	f.calls++
	return f.result, f.err
}

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createBenchmarkLogger(b *testing.B) logger.Logger {
	zapLogger, _ := zap.NewProduction()
	return logger.NewZapAdapter(zapLogger)
}

func newTestHandler(t *testing.T, analyzer recommendation.Analyzer) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := createTestLogger(t)
	service := recommendation.NewService(analyzer, pgqueries.NewPostgresFinder(db), recommendation.DefaultOptions(), log, nil)
	return NewHandler(createTestConfig(), service, log), mock
}

func innovaRow() *sqlmock.Rows {
	return sqlmock.NewRows(vehicleCols).
		AddRow(5, 1, "Innova Reborn", "Toyota", "MPV", "B 7777 KK", 7, "Automatic", "Diesel", 2023, 650000, "AVAILABLE",
			"", "", seededAt, seededAt, 1, "Galindo Jakarta Pusat", "Jakarta", "Jl. Thamrin 1")
}

func denyListArgs() []driver.Value {
	args := make([]driver.Value, 0, len(recommendation.DefaultDenyList))
	for _, term := range recommendation.DefaultDenyList {
		args = append(args, "%"+term+"%")
	}
	return args
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_StrictHit(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &recommendation.ExtractionResult{
		City:   "Jakarta",
		People: 4.0,
		Notes:  "Cocok untuk 4 orang",
	}}
	handler, mock := newTestHandler(t, analyzer)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE v.seat >= $1 AND b.city = $2`)).
		WithArgs(4, "Jakarta", 18).
		WillReturnRows(innovaRow())

	output, err := handler.Execute(context.Background(), &Input{Prompt: "mobil 4 orang di jakarta"})
	require.NoError(t, err)

	assert.Equal(t, "Cocok untuk 4 orang", output.Reason)
	assert.False(t, output.Meta.Relaxed)
	assert.Equal(t, 1, output.Meta.Total)
	require.Len(t, output.Results, 1)
	assert.Equal(t, "Innova Reborn", output.Results[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RelaxesLargeGroup(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &recommendation.ExtractionResult{People: 8.0}}
	handler, mock := newTestHandler(t, analyzer)

	strictArgs := append([]driver.Value{8}, denyListArgs()...)
	strictArgs = append(strictArgs, 18)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE v.seat >= $1 AND NOT (v.name ILIKE $2`)).
		WithArgs(strictArgs...).
		WillReturnRows(sqlmock.NewRows(vehicleCols))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE v.seat >= $1 ORDER BY`)).
		WithArgs(7, 18).
		WillReturnRows(innovaRow())

	output, err := handler.Execute(context.Background(), &Input{Prompt: "rombongan 8 orang"})
	require.NoError(t, err)

	assert.True(t, output.Meta.Relaxed)
	assert.Equal(t, recommendation.DefaultReason, output.Reason)
	assert.Equal(t, 8, *output.Filters.People)
	assert.Len(t, output.Results, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NoRelaxationWithoutSeats(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &recommendation.ExtractionResult{Type: "SUV"}}
	handler, mock := newTestHandler(t, analyzer)

	mock.ExpectQuery(regexp.QuoteMeta(`(v.type ILIKE $1 OR v.name ILIKE $1 OR v.brand ILIKE $1)`)).
		WithArgs("%SUV%", 18).
		WillReturnRows(sqlmock.NewRows(vehicleCols))

	output, err := handler.Execute(context.Background(), &Input{Prompt: "suv"})
	require.NoError(t, err)
	assert.False(t, output.Meta.Relaxed)
	assert.Empty(t, output.Results)
	assert.NotNil(t, output.Results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		analyzer *fakeAnalyzer
		prompt   string
		dbErr    error
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "empty prompt",
			analyzer: &fakeAnalyzer{},
			prompt:   "   ",
			wantCode: apperrors.ErrCodePromptEmpty,
		},
		{
			name:     "upstream unavailable",
			analyzer: &fakeAnalyzer{err: fmt.Errorf("%w: status 503", recommendation.ErrUpstreamUnavailable)},
			prompt:   "mobil murah",
			wantCode: apperrors.ErrCodeAIServiceUnavailable,
		},
		{
			name:     "query failure",
			analyzer: &fakeAnalyzer{result: &recommendation.ExtractionResult{}},
			prompt:   "mobil murah",
			dbErr:    errors.New("relation \"Vehicles\" does not exist"),
			wantCode: apperrors.ErrCodeQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := newTestHandler(t, tt.analyzer)
			if tt.dbErr != nil {
				mock.ExpectQuery(`FROM "Vehicles"`).WillReturnError(tt.dbErr)
			}

			_, err := handler.Execute(context.Background(), &Input{Prompt: tt.prompt})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, toStandardError(err).Code)
		})
	}
}

func TestHandler_Handle_Completes(t *testing.T) {
	handler, mock := newTestHandler(t, &fakeAnalyzer{result: &recommendation.ExtractionResult{City: "Jakarta"}})
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE b.city = $1`)).WillReturnRows(innovaRow())

	client := camundatest.NewJobClient()
	handler.Handle(client, camundatest.NewJob(1, TaskType, map[string]interface{}{"prompt": "mobil di jakarta"}))

	require.Len(t, client.Completed(), 1)
	vars := client.CompletedVariables(0)
	assert.Equal(t, recommendation.DefaultReason, vars["reason"])
	assert.Len(t, vars["results"], 1)
	assert.Equal(t, "Jakarta", vars["filters"].(map[string]interface{})["city"])
}

func TestHandler_Handle_MissingPromptThrowsPromptEmpty(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeAnalyzer{})

	client := camundatest.NewJobClient()
	handler.Handle(client, camundatest.NewJob(2, TaskType, map[string]interface{}{}))

	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "PROMPT_EMPTY", client.Thrown()[0].ErrorCode)
}

func TestHandler_Handle_SchemaViolationThrows(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeAnalyzer{})

	client := camundatest.NewJobClient()
	handler.Handle(client, camundatest.NewJob(3, TaskType, map[string]interface{}{"prompt": 42}))

	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "INVALID_INPUT", client.Thrown()[0].ErrorCode)
}

func TestHandler_Handle_UnavailableFailsWithRetries(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeAnalyzer{err: fmt.Errorf("%w: timeout", recommendation.ErrUpstreamUnavailable)})

	client := camundatest.NewJobClient()
	handler.Handle(client, camundatest.NewJob(4, TaskType, map[string]interface{}{"prompt": "mobil"}))

	require.Len(t, client.Failed(), 1)
	assert.Equal(t, int32(2), client.Failed()[0].Retries)
}

// ==========================
// Backend Selection Tests
// ==========================

func TestNewFinder(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{"http://localhost:9200"}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		backend string
		db      *sql.DB
		es      *elasticsearch.Client
		want    interface{}
		wantErr bool
	}{
		{name: "default is postgres", backend: "", db: db, want: &pgqueries.PostgresFinder{}},
		{name: "postgres", backend: "Postgres", db: db, want: &pgqueries.PostgresFinder{}},
		{name: "elasticsearch", backend: "elasticsearch", es: es, want: &esqueries.ElasticsearchFinder{}},
		{name: "postgres without db", backend: "postgres", wantErr: true},
		{name: "elasticsearch without client", backend: "elasticsearch", db: db, wantErr: true},
		{name: "unknown", backend: "mongodb", db: db, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder, err := NewFinder(tt.backend, tt.db, tt.es, "vehicles")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownBackend)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, finder)
		})
	}
}

// ==========================
// Benchmark Tests
// ==========================

func BenchmarkHandler_Execute(b *testing.B) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < b.N; i++ {
		mock.ExpectQuery(`FROM "Vehicles"`).WillReturnRows(sqlmock.NewRows(vehicleCols))
	}

	log := createBenchmarkLogger(b)
	analyzer := &fakeAnalyzer{result: &recommendation.ExtractionResult{Type: "SUV"}}
	service := recommendation.NewService(analyzer, pgqueries.NewPostgresFinder(db), recommendation.DefaultOptions(), log, nil)
	handler := NewHandler(createTestConfig(), service, log)
	input := &Input{Prompt: "suv"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = handler.Execute(context.Background(), input)
	}
}
