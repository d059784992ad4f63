package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/provisora/internal/audit/domain"
	auditrepository "github.com/smallbiznis/provisora/internal/audit/repository"
	auditservice "github.com/smallbiznis/provisora/internal/audit/service"
	"github.com/smallbiznis/provisora/internal/clock"
	"github.com/smallbiznis/provisora/internal/config"
	contractdomain "github.com/smallbiznis/provisora/internal/contract/domain"
	contractrepository "github.com/smallbiznis/provisora/internal/contract/repository"
	contractservice "github.com/smallbiznis/provisora/internal/contract/service"
	"github.com/smallbiznis/provisora/internal/filter"
	"github.com/smallbiznis/provisora/internal/provision/domain"
	"github.com/smallbiznis/provisora/internal/provision/lock"
	"github.com/smallbiznis/provisora/internal/provision/repository"
	"github.com/smallbiznis/provisora/internal/reconciliation"
	"github.com/smallbiznis/provisora/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	audit auditdomain.Service
	db    *gorm.DB
	clock *clock.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureWithLocker(t, lock.NewKeyedMutex())
}

func newFixtureWithLocker(t *testing.T, locker lock.Locker) fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Provision{}, &auditdomain.Entry{}, &contractdomain.Contract{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{StoreTimeout: 2 * time.Second}

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  auditrepository.Provide(),
	})
	contracts := contractservice.New(contractservice.Params{
		DB:   conn,
		Log:  log,
		Cfg:  cfg,
		Repo: contractrepository.Provide(),
	})

	svc := New(Params{
		DB:        conn,
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Cfg:       cfg,
		Repo:      repository.Provide(),
		Engine:    reconciliation.NewEngine(config.NewStaticReconciliationConfig(config.DefaultReconciliationConfig())),
		Locker:    locker,
		Contracts: contracts,
		Audit:     auditSvc,
	})

	return fixture{svc: svc, audit: auditSvc, db: conn, clock: clk}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sampleRequest() domain.CreateRequest {
	due := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	return domain.CreateRequest{
		ContractID:      101,
		ContractName:    "Shopping Center Norte",
		Description:     "Limpeza e conservação",
		Month:           8,
		Year:            2025,
		PredictedAmount: dec("150000"),
		BilledAmount:    dec("145000"),
		Status:          domain.StatusAguardandoAprovacao,
		DueDate:         &due,
		Glosas:          dec("2500"),
		DescontoSLA:     dec("1200"),
		VendaMOE:        dec("3800"),
		Outros:          dec("1500"),
		Efetivo:         42,
		FringePlanejado: dec("18000.50"),
		FringeExecutado: dec("18750.25"),
	}
}

func TestCreateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, sampleRequest())
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, int64(1), created.Revision)

	byPeriod, err := f.svc.GetByPeriod(ctx, 101, 8, 2025)
	require.NoError(t, err)
	byID, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)

	for _, got := range []domain.Provision{byPeriod, byID} {
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.ContractID, got.ContractID)
		assert.Equal(t, created.ContractName, got.ContractName)
		assert.Equal(t, created.Description, got.Description)
		assert.Equal(t, created.Month, got.Month)
		assert.Equal(t, created.Year, got.Year)
		assert.Equal(t, created.Status, got.Status)
		assert.Equal(t, created.Efetivo, got.Efetivo)
		assert.Equal(t, created.Revision, got.Revision)
		require.NotNil(t, got.DueDate)
		assert.True(t, created.DueDate.Equal(*got.DueDate))
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

		wantAmounts := created.Amounts()
		for i, amount := range got.Amounts() {
			assert.True(t, wantAmounts[i].Value.Equal(amount.Value), "%s: want %s got %s", amount.Field, wantAmounts[i].Value, amount.Value)
		}
	}
}

func TestCreateDuplicatePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateRequest{
		ContractID: 7, ContractName: "Hospital Central", Month: 8, Year: 2025,
		PredictedAmount: dec("150000"),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, domain.CreateRequest{
		ContractID: 7, ContractName: "Hospital Central", Month: 8, Year: 2025,
		PredictedAmount: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicatePeriod)
}

func TestCreateDefaultsAndContractLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&contractdomain.Contract{
		ID:           55,
		Name:         "Aeroporto Regional",
		Client:       "Infraero",
		Category:     "facilities",
		Status:       contractdomain.StatusActive,
		MonthlyValue: dec("90000"),
		TotalValue:   dec("1080000"),
		CreatedAt:    f.clock.Now(),
	}).Error)

	created, err := f.svc.Create(ctx, domain.CreateRequest{ContractID: 55, Month: 1, Year: 2025, PredictedAmount: dec("90000")})
	require.NoError(t, err)
	assert.Equal(t, "Aeroporto Regional", created.ContractName)
	assert.Equal(t, domain.StatusAguardandoPO, created.Status)

	_, err = f.svc.Create(ctx, domain.CreateRequest{ContractID: 999, Month: 1, Year: 2025})
	assert.ErrorIs(t, err, domain.ErrInvalidContract)

	_, err = f.svc.Create(ctx, domain.CreateRequest{ContractName: "Sem id", Month: 1, Year: 2025})
	assert.ErrorIs(t, err, domain.ErrInvalidContract)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := sampleRequest()
	req.Glosas = dec("-10")
	_, err := f.svc.Create(ctx, req)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	var fieldErr *domain.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, []string{"glosas"}, fieldErr.Fields)

	req = sampleRequest()
	req.Status = "pago"
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	req = sampleRequest()
	req.Month = 0
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = f.svc.GetByPeriod(ctx, 101, 8, 2025)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateLeavingIssuedWithReceiptsFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, sampleRequest())
	require.NoError(t, err)

	issued := domain.StatusNFEmitida
	received := dec("92000")
	updated, err := f.svc.Update(ctx, created.ID, domain.UpdateRequest{Status: &issued, ReceivedAmount: &received})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Revision)

	back := domain.StatusAguardandoSLA
	_, err = f.svc.Update(ctx, created.ID, domain.UpdateRequest{Status: &back})
	assert.ErrorIs(t, err, domain.ErrInconsistentState)

	stored, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNFEmitida, stored.Status)
	assert.Equal(t, int64(2), stored.Revision)
}

func TestUpdateTransitionRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := sampleRequest()
	req.BilledAmount = decimal.Zero
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	issued := domain.StatusNFEmitida
	_, err = f.svc.Update(ctx, created.ID, domain.UpdateRequest{Status: &issued})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	unknown := domain.Status("faturado")
	_, err = f.svc.Update(ctx, created.ID, domain.UpdateRequest{Status: &unknown})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	precise := dec("1.001")
	_, err = f.svc.Update(ctx, created.ID, domain.UpdateRequest{BilledAmount: &precise})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.Update(ctx, snowflake.ID(123456), domain.UpdateRequest{Status: &issued})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateWithoutChangesKeepsRevision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, sampleRequest())
	require.NoError(t, err)

	same := created.BilledAmount
	updated, err := f.svc.Update(ctx, created.ID, domain.UpdateRequest{BilledAmount: &same})
	require.NoError(t, err)
	assert.Equal(t, created.Revision, updated.Revision)
}

func TestUpdateWritesAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, sampleRequest())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	billed := dec("148000")
	_, err = f.svc.Update(ctx, created.ID, domain.UpdateRequest{BilledAmount: &billed})
	require.NoError(t, err)

	resp, err := f.audit.List(ctx, auditdomain.ListRequest{TargetType: auditdomain.TargetProvision, TargetID: created.ID})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, auditdomain.ActionCreate, resp.Entries[0].Action)
	assert.Equal(t, auditdomain.ActionUpdate, resp.Entries[1].Action)
	assert.Equal(t, int64(2), resp.Entries[1].Revision)

	change, ok := resp.Entries[1].Changes["billed_amount"].(map[string]any)
	require.True(t, ok, "changes: %v", resp.Entries[1].Changes)
	assert.Equal(t, "145000.00", change["from"])
	assert.Equal(t, "148000.00", change["to"])
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inputs := []domain.CreateRequest{
		{ContractID: 1, ContractName: "Shopping Norte", Month: 7, Year: 2025, PredictedAmount: dec("100")},
		{ContractID: 1, ContractName: "Shopping Norte", Month: 8, Year: 2025, PredictedAmount: dec("100"), Status: domain.StatusAguardandoSLA},
		{ContractID: 2, ContractName: "Hospital Sul", Description: "Portaria noturna", Month: 8, Year: 2025, PredictedAmount: dec("100")},
		{ContractID: 2, ContractName: "Hospital Sul", Month: 8, Year: 2024, PredictedAmount: dec("100")},
	}
	for _, in := range inputs {
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	august, err := f.svc.List(ctx, domain.ListFilter{Month: filter.Some(8), Year: filter.Some(2025)})
	require.NoError(t, err)
	assert.Len(t, august, 2)

	byContract, err := f.svc.List(ctx, domain.ListFilter{ContractID: filter.Some(snowflake.ID(1)), Status: filter.Some(domain.StatusAguardandoSLA)})
	require.NoError(t, err)
	require.Len(t, byContract, 1)
	assert.Equal(t, 8, byContract[0].Month)

	search, err := f.svc.List(ctx, domain.ListFilter{Search: "PORTARIA"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Hospital Sul", search[0].ContractName)

	inMemory := domain.Filter(all, domain.ListFilter{Search: "portaria"})
	assert.Len(t, inMemory, 1)
}

func TestSearchMatchesInMemoryFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inputs := []domain.CreateRequest{
		{ContractID: 11, ContractName: "CONDOMÍNIO PARQUE", Month: 8, Year: 2025, PredictedAmount: dec("100")},
		{ContractID: 12, ContractName: "Reajuste 10_5 Norte", Month: 8, Year: 2025, PredictedAmount: dec("100")},
		{ContractID: 13, ContractName: "Reajuste 10x5 Sul", Description: "100% efetivo", Month: 8, Year: 2025, PredictedAmount: dec("100")},
	}
	for _, in := range inputs {
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	cases := map[string]string{
		"condomínio": "CONDOMÍNIO PARQUE",
		"10_5":       "Reajuste 10_5 Norte",
		"0%":         "Reajuste 10x5 Sul",
	}
	for query, want := range cases {
		stored, err := f.svc.List(ctx, domain.ListFilter{Search: query})
		require.NoError(t, err)
		inMemory := domain.Filter(all, domain.ListFilter{Search: query})

		require.Len(t, stored, 1, "query %q", query)
		require.Len(t, inMemory, 1, "query %q", query)
		assert.Equal(t, want, stored[0].ContractName)
		assert.Equal(t, inMemory[0].ID, stored[0].ID)
	}

	// renaming through an update keeps the stored search key current
	desc := "Condomínio anexo"
	_, err = f.svc.Update(ctx, all[2].ID, domain.UpdateRequest{Description: &desc})
	require.NoError(t, err)
	renamed, err := f.svc.List(ctx, domain.ListFilter{Search: "ANEXO"})
	require.NoError(t, err)
	require.Len(t, renamed, 1)
	assert.Equal(t, all[2].ID, renamed[0].ID)
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, sampleRequest())
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			description := fmt.Sprintf("ajuste %d", i)
			_, err := f.svc.Update(ctx, created.ID, domain.UpdateRequest{Description: &description})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	stored, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1+writers), stored.Revision)
}

func TestCancelledContextIsStoreUnavailable(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.GetByID(ctx, snowflake.ID(1))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = f.svc.List(ctx, domain.ListFilter{})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

type failingLocker struct{ err error }

func (l failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, l.err
}

func TestLockBackendFailureIsStoreUnavailable(t *testing.T) {
	f := newFixtureWithLocker(t, failingLocker{err: fmt.Errorf("%w: connection refused", lock.ErrLockUnavailable)})

	_, err := f.svc.Create(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
