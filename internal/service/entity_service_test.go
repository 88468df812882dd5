package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/pkg/compliance"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type memCompanies struct {
	items   map[string]models.Company
	findErr error
}

func (m *memCompanies) List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error) {
	out := make([]models.Company, 0, len(m.items))
	for _, id := range sortedKeys(m.items) {
		c := m.items[id]
		if filter.Active != nil && c.Active != *filter.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memCompanies) FindByID(ctx context.Context, id string) (*models.Company, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (m *memCompanies) ExistsByDOTNumber(ctx context.Context, dot, excludeID string) (bool, error) {
	for id, c := range m.items {
		if id != excludeID && c.DOTNumber != nil && *c.DOTNumber == dot {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCompanies) Create(ctx context.Context, company *models.Company) error {
	company.ID = "new-company"
	m.items[company.ID] = *company
	return nil
}

func (m *memCompanies) Update(ctx context.Context, company *models.Company) error {
	m.items[company.ID] = *company
	return nil
}

func (m *memCompanies) Deactivate(ctx context.Context, id string) error {
	c := m.items[id]
	c.Active = false
	m.items[id] = c
	return nil
}

func newMemCompanies() *memCompanies {
	return &memCompanies{items: map[string]models.Company{
		"c1": {ID: "c1", Name: "Acme Freight", DOTNumber: strPtr("1234567"), Active: true},
		"c2": {ID: "c2", Name: "Blue Line", Active: true},
	}}
}

func TestCompanyServiceScope(t *testing.T) {
	svc := NewCompanyService(newMemCompanies(), nil, nil)
	ctx := context.Background()

	companies, pagination, err := svc.List(ctx, models.ListQuery{CompanyID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, "c2", companies[0].ID)

	_, err = svc.Get(ctx, "c2", "c1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(ctx, CreateCompanyRequest{Name: "Dup", DOTNumber: strPtr("1234567")})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(ctx, CreateCompanyRequest{Name: "Bad", DOTNumber: strPtr("12AB")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	updated, err := svc.Update(ctx, "c1", "c1", UpdateCompanyRequest{
		CreateCompanyRequest: CreateCompanyRequest{Name: "Acme Freight LLC", DOTNumber: strPtr("1234567")},
		Active:               boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Freight LLC", updated.Name)

	require.NoError(t, svc.Delete(ctx, "", "c2"))
	companies, _, err = svc.List(ctx, models.ListQuery{Active: boolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, companies, 1)
}

func TestCompanyServiceExists(t *testing.T) {
	repo := newMemCompanies()
	svc := NewCompanyService(repo, nil, nil)

	assert.NoError(t, svc.Exists(context.Background(), "c1"))
	assert.ErrorIs(t, svc.Exists(context.Background(), "zz"), appErrors.ErrValidation)

	repo.findErr = errors.New("connection reset")
	assert.ErrorIs(t, svc.Exists(context.Background(), "c1"), appErrors.ErrInternal)
}

func TestDriverServiceCreateAndInvalidate(t *testing.T) {
	f := newFleetFixture(t)
	cache := &fakeInvalidator{}
	svc := NewDriverService(f.drivers, fakeCompanies{"c1": true, "c2": true}, f.compliance, cache, nil, nil)
	ctx := context.Background()

	row, err := svc.Create(ctx, "c1", DriverRequest{
		FirstName:         "Eve",
		LastName:          "New",
		LicenseNumber:     "E5",
		LicenseState:      "ok",
		CDLExpirationDate: strPtr("2026-03-20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", row.CompanyID)
	assert.Equal(t, "OK", row.LicenseState)
	assert.True(t, row.Active)
	assert.Equal(t, compliance.CategoryExpiring, row.CDLStatus.Category)
	assert.Equal(t, []string{complianceCachePattern}, cache.patterns)

	_, err = svc.Create(ctx, "c1", DriverRequest{FirstName: "X", LastName: "Y", LicenseNumber: "A1", LicenseState: "TX"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(ctx, "c1", DriverRequest{CompanyID: "c2", FirstName: "X", LastName: "Y", LicenseNumber: "Z9", LicenseState: "TX"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(ctx, "c1", DriverRequest{FirstName: "X", LastName: "Y", LicenseNumber: "Z9", LicenseState: "TX", HireDate: strPtr("31/12/2020")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Len(t, cache.patterns, 1)
}

func TestDriverServiceUpdateKeepsCompany(t *testing.T) {
	f := newFleetFixture(t)
	cache := &fakeInvalidator{}
	svc := NewDriverService(f.drivers, fakeCompanies{"c1": true}, f.compliance, cache, nil, nil)
	ctx := context.Background()

	row, err := svc.Update(ctx, "", "d3", DriverRequest{
		FirstName:         "Carl",
		LastName:          "Renewed",
		LicenseNumber:     "C3",
		LicenseState:      "TX",
		CDLExpirationDate: strPtr("2030-01-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", row.CompanyID)
	assert.Equal(t, compliance.CategoryValid, row.CDLStatus.Category)

	_, err = svc.Get(ctx, "c2", "d3")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "c1", "d3"))
	assert.False(t, f.drivers.items["d3"].Active)
	assert.Len(t, cache.patterns, 2)
}

func TestVehicleServiceCreate(t *testing.T) {
	f := newFleetFixture(t)
	cache := &fakeInvalidator{}
	svc := NewVehicleService(f.vehicles, f.inspections, fakeCompanies{"c1": true}, f.compliance, cache, nil, nil)
	ctx := context.Background()

	row, err := svc.Create(ctx, "c1", VehicleRequest{UnitNumber: "T-500", Type: models.VehicleTypeTruck, VIN: "1fujgldr0csbm0005"})
	require.NoError(t, err)
	assert.Equal(t, "1FUJGLDR0CSBM0005", row.VIN)
	assert.Equal(t, compliance.CategoryUnknown, row.Status)
	assert.Len(t, cache.patterns, 1)

	_, err = svc.Create(ctx, "c1", VehicleRequest{UnitNumber: "T-501", Type: models.VehicleTypeTruck, VIN: "1FUJGLDR0CSBM0001"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(ctx, "c1", VehicleRequest{UnitNumber: "T-502", Type: "BUS", VIN: "1FUJGLDR0CSBM0009"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.List(ctx, models.ListQuery{}, "BUS")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	got, err := svc.Get(ctx, "c1", "v2")
	require.NoError(t, err)
	assert.Equal(t, compliance.CategoryExpiring, got.InspectionStatus.Category)
}

func TestInspectionServiceDerivesCompany(t *testing.T) {
	f := newFleetFixture(t)
	cache := &fakeInvalidator{}
	svc := NewInspectionService(f.inspections, f.vehicles, f.inspectors, f.compliance, cache, nil, nil)
	ctx := context.Background()

	row, err := svc.Create(ctx, "", InspectionRequest{VehicleID: "v3", InspectorID: strPtr("n1"), InspectionDate: "2026-02-15", Passed: true})
	require.NoError(t, err)
	assert.Equal(t, "c1", row.CompanyID)
	assert.Equal(t, compliance.CategoryValid, row.Status.Category)
	assert.Len(t, cache.patterns, 1)

	_, err = svc.Create(ctx, "", InspectionRequest{VehicleID: "v3", InspectorID: strPtr("n2"), InspectionDate: "2026-02-15"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, "c2", InspectionRequest{VehicleID: "v3", InspectionDate: "2026-02-15"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, "c1", InspectionRequest{VehicleID: "v3", InspectionDate: "someday"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, svc.Delete(ctx, "c1", row.ID))
	_, err = svc.Get(ctx, "c1", row.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestInspectorServiceDates(t *testing.T) {
	f := newFleetFixture(t)
	svc := NewInspectorService(f.inspectors, fakeCompanies{"c1": true}, f.compliance, &fakeInvalidator{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "c1", InspectorRequest{
		FullName: "Late Cert", CertificationNumber: "QI-9",
		CertificationDate: strPtr("2026-01-10"), CertificationExpiryDate: strPtr("2025-01-10"),
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	row, err := svc.Create(ctx, "c1", InspectorRequest{
		FullName: "Good Cert", CertificationNumber: "QI-10",
		CertificationDate: strPtr("2026-01-10"), CertificationExpiryDate: strPtr("2027-01-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, compliance.CategoryValid, row.CertificationStatus.Category)
}
