package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/pkg/config"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type fakeCompanies map[string]bool

func (f fakeCompanies) Exists(ctx context.Context, id string) error {
	if !f[id] {
		return appErrors.Clone(appErrors.ErrValidation, "company_id does not reference an existing company")
	}
	return nil
}

type fakeInvalidator struct {
	patterns []string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	return nil
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func rolePtr(r models.UserRole) *models.UserRole { return &r }

type memDrivers struct {
	items map[string]models.Driver
	err   error
	seq   int
}

func (m *memDrivers) List(ctx context.Context, filter models.DriverFilter) ([]models.Driver, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Driver, 0, len(m.items))
	for _, id := range sortedKeys(m.items) {
		d := m.items[id]
		if filter.CompanyID != "" && d.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Active != nil && d.Active != *filter.Active {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memDrivers) FindByID(ctx context.Context, id string) (*models.Driver, error) {
	d, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (m *memDrivers) ExistsByLicense(ctx context.Context, state, number, excludeID string) (bool, error) {
	for id, d := range m.items {
		if id != excludeID && d.LicenseState == state && d.LicenseNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDrivers) Create(ctx context.Context, driver *models.Driver) error {
	m.seq++
	driver.ID = fmt.Sprintf("new-driver-%d", m.seq)
	m.put(*driver)
	return nil
}

func (m *memDrivers) Update(ctx context.Context, driver *models.Driver) error {
	m.put(*driver)
	return nil
}

func (m *memDrivers) Deactivate(ctx context.Context, id string) error {
	d := m.items[id]
	d.Active = false
	m.items[id] = d
	return nil
}

func (m *memDrivers) put(d models.Driver) {
	if m.items == nil {
		m.items = make(map[string]models.Driver)
	}
	m.items[d.ID] = d
}

type memVehicles struct {
	items map[string]models.Vehicle
	seq   int
}

func (m *memVehicles) List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error) {
	out := make([]models.Vehicle, 0, len(m.items))
	for _, id := range sortedKeys(m.items) {
		v := m.items[id]
		if filter.CompanyID != "" && v.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Type != "" && v.Type != filter.Type {
			continue
		}
		if filter.Active != nil && v.Active != *filter.Active {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *memVehicles) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	v, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &v, nil
}

func (m *memVehicles) ExistsByVIN(ctx context.Context, vin, excludeID string) (bool, error) {
	for id, v := range m.items {
		if id != excludeID && v.VIN == vin {
			return true, nil
		}
	}
	return false, nil
}

func (m *memVehicles) Create(ctx context.Context, vehicle *models.Vehicle) error {
	m.seq++
	vehicle.ID = fmt.Sprintf("new-vehicle-%d", m.seq)
	m.put(*vehicle)
	return nil
}

func (m *memVehicles) Update(ctx context.Context, vehicle *models.Vehicle) error {
	m.put(*vehicle)
	return nil
}

func (m *memVehicles) Deactivate(ctx context.Context, id string) error {
	v := m.items[id]
	v.Active = false
	m.items[id] = v
	return nil
}

func (m *memVehicles) put(v models.Vehicle) {
	if m.items == nil {
		m.items = make(map[string]models.Vehicle)
	}
	m.items[v.ID] = v
}

type memInspections struct {
	items map[string]models.AnnualInspection
	seq   int
}

func (m *memInspections) List(ctx context.Context, filter models.InspectionFilter) ([]models.AnnualInspection, error) {
	out := make([]models.AnnualInspection, 0, len(m.items))
	for _, id := range sortedKeys(m.items) {
		i := m.items[id]
		if filter.CompanyID != "" && i.CompanyID != filter.CompanyID {
			continue
		}
		if filter.VehicleID != "" && i.VehicleID != filter.VehicleID {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (m *memInspections) ListByVehicleIDs(ctx context.Context, vehicleIDs []string) ([]models.AnnualInspection, error) {
	wanted := make(map[string]bool, len(vehicleIDs))
	for _, id := range vehicleIDs {
		wanted[id] = true
	}
	out := make([]models.AnnualInspection, 0)
	for _, id := range sortedKeys(m.items) {
		if i := m.items[id]; wanted[i.VehicleID] {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memInspections) FindByID(ctx context.Context, id string) (*models.AnnualInspection, error) {
	i, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &i, nil
}

func (m *memInspections) Create(ctx context.Context, inspection *models.AnnualInspection) error {
	m.seq++
	inspection.ID = fmt.Sprintf("new-inspection-%d", m.seq)
	m.put(*inspection)
	return nil
}

func (m *memInspections) Update(ctx context.Context, inspection *models.AnnualInspection) error {
	m.put(*inspection)
	return nil
}

func (m *memInspections) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *memInspections) put(i models.AnnualInspection) {
	if m.items == nil {
		m.items = make(map[string]models.AnnualInspection)
	}
	m.items[i.ID] = i
}

type memInspectors struct {
	items map[string]models.QualifiedInspector
	seq   int
}

func (m *memInspectors) List(ctx context.Context, filter models.InspectorFilter) ([]models.QualifiedInspector, error) {
	out := make([]models.QualifiedInspector, 0, len(m.items))
	for _, id := range sortedKeys(m.items) {
		i := m.items[id]
		if filter.CompanyID != "" && i.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Active != nil && i.Active != *filter.Active {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (m *memInspectors) FindByID(ctx context.Context, id string) (*models.QualifiedInspector, error) {
	i, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &i, nil
}

func (m *memInspectors) Create(ctx context.Context, inspector *models.QualifiedInspector) error {
	m.seq++
	inspector.ID = fmt.Sprintf("new-inspector-%d", m.seq)
	m.put(*inspector)
	return nil
}

func (m *memInspectors) Update(ctx context.Context, inspector *models.QualifiedInspector) error {
	m.put(*inspector)
	return nil
}

func (m *memInspectors) Deactivate(ctx context.Context, id string) error {
	i := m.items[id]
	i.Active = false
	m.items[id] = i
	return nil
}

func (m *memInspectors) put(i models.QualifiedInspector) {
	if m.items == nil {
		m.items = make(map[string]models.QualifiedInspector)
	}
	m.items[i.ID] = i
}

type memCache struct {
	entries map[string][]byte
	getErr  error
	sets    int
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	m.sets++
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func day(raw string) *time.Time {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		panic(err)
	}
	return &t
}

// fleetNow is the fixed clock of the fixture fleet.
var fleetNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type fleetFixture struct {
	drivers     *memDrivers
	vehicles    *memVehicles
	inspections *memInspections
	inspectors  *memInspectors
	cache       *memCache
	compliance  *ComplianceService
}

// newFleetFixture builds two companies. c1 has one driver of each CDL category, a trailer with
// an expiring inspection, a truck without any inspection and an expired inspector.
func newFleetFixture(t *testing.T) *fleetFixture {
	t.Helper()
	rules, err := NewComplianceRules(config.ComplianceConfig{
		CDLWarningDays: 30, MedicalWarningDays: 30, InspectionWarningDays: 30, MaintenanceWarningDays: 30, InspectorWarningDays: 30,
	})
	if err != nil {
		t.Fatalf("rules: %v", err)
	}

	f := &fleetFixture{
		drivers:     &memDrivers{},
		vehicles:    &memVehicles{},
		inspections: &memInspections{},
		inspectors:  &memInspectors{},
		cache:       &memCache{},
	}
	for _, d := range []models.Driver{
		{ID: "d1", CompanyID: "c1", FirstName: "Alice", LastName: "Valid", LicenseNumber: "A1", LicenseState: "TX", CDLExpirationDate: day("2027-01-01"), MedicalCardExpirationDate: day("2027-01-01"), Active: true},
		{ID: "d2", CompanyID: "c1", FirstName: "Bob", LastName: "Expiring", LicenseNumber: "B2", LicenseState: "TX", CDLExpirationDate: day("2026-03-11"), MedicalCardExpirationDate: day("2027-01-01"), Active: true},
		{ID: "d3", CompanyID: "c1", FirstName: "Carl", LastName: "Expired", LicenseNumber: "C3", LicenseState: "TX", CDLExpirationDate: day("2026-02-01"), MedicalCardExpirationDate: day("2027-01-01"), Active: true},
		{ID: "d4", CompanyID: "c2", FirstName: "Dora", LastName: "Other", LicenseNumber: "D4", LicenseState: "OK", CDLExpirationDate: day("2027-01-01"), MedicalCardExpirationDate: day("2027-01-01"), Active: true},
	} {
		f.drivers.put(d)
	}
	for _, v := range []models.Vehicle{
		{ID: "v1", CompanyID: "c1", UnitNumber: "T-100", Type: models.VehicleTypeTruck, VIN: "1FUJGLDR0CSBM0001", LastMaintenanceReviewDate: day("2025-12-01"), Active: true},
		{ID: "v2", CompanyID: "c1", UnitNumber: "TR-200", Type: models.VehicleTypeTrailer, VIN: "1FUJGLDR0CSBM0002", LastMaintenanceReviewDate: day("2025-12-01"), Active: true},
		{ID: "v3", CompanyID: "c1", UnitNumber: "T-300", Type: models.VehicleTypeTruck, VIN: "1FUJGLDR0CSBM0003", LastMaintenanceReviewDate: day("2025-12-01"), Active: true},
		{ID: "v4", CompanyID: "c2", UnitNumber: "T-400", Type: models.VehicleTypeTruck, VIN: "1FUJGLDR0CSBM0004", LastMaintenanceReviewDate: day("2025-12-01"), Active: true},
	} {
		f.vehicles.put(v)
	}
	for _, i := range []models.AnnualInspection{
		{ID: "i1", CompanyID: "c1", VehicleID: "v1", InspectionDate: day("2025-06-01"), Passed: true},
		{ID: "i2", CompanyID: "c1", VehicleID: "v2", InspectionDate: day("2025-03-10"), Passed: true},
		{ID: "i4", CompanyID: "c2", VehicleID: "v4", InspectionDate: day("2025-06-01"), Passed: true},
	} {
		f.inspections.put(i)
	}
	for _, i := range []models.QualifiedInspector{
		{ID: "n1", CompanyID: "c1", FullName: "Ivy Inspector", CertificationNumber: "QI-1", CertificationExpiryDate: day("2026-02-20"), Active: true},
		{ID: "n2", CompanyID: "c2", FullName: "Nico Inspector", CertificationNumber: "QI-2", CertificationExpiryDate: day("2027-02-20"), Active: true},
	} {
		f.inspectors.put(i)
	}

	f.compliance = NewComplianceService(rules, f.drivers, f.vehicles, f.inspections, f.inspectors, f.cache, nil, ComplianceServiceConfig{}, zap.NewNop()).
		WithClock(func() time.Time { return fleetNow })
	return f
}
