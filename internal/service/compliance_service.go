package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/pkg/cache"
	"github.com/noah-isme/fleet-compliance-api/pkg/compliance"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type driverReader interface {
	List(ctx context.Context, filter models.DriverFilter) ([]models.Driver, error)
	FindByID(ctx context.Context, id string) (*models.Driver, error)
}

type vehicleReader interface {
	List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error)
	FindByID(ctx context.Context, id string) (*models.Vehicle, error)
}

type inspectionReader interface {
	List(ctx context.Context, filter models.InspectionFilter) ([]models.AnnualInspection, error)
	ListByVehicleIDs(ctx context.Context, vehicleIDs []string) ([]models.AnnualInspection, error)
}

type inspectorReader interface {
	List(ctx context.Context, filter models.InspectorFilter) ([]models.QualifiedInspector, error)
}

type complianceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ComplianceServiceConfig tunes summary caching.
type ComplianceServiceConfig struct {
	CacheTTL time.Duration
}

// ComplianceService classifies fleet records against the configured rules. It owns the clock;
// everything below it receives now as an argument.
type ComplianceService struct {
	rules       *ComplianceRules
	drivers     driverReader
	vehicles    vehicleReader
	inspections inspectionReader
	inspectors  inspectorReader
	cache       complianceCache
	metrics     *MetricsService
	cfg         ComplianceServiceConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewComplianceService constructs a ComplianceService.
func NewComplianceService(
	rules *ComplianceRules,
	drivers driverReader,
	vehicles vehicleReader,
	inspections inspectionReader,
	inspectors inspectorReader,
	cache complianceCache,
	metrics *MetricsService,
	cfg ComplianceServiceConfig,
	logger *zap.Logger,
) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &ComplianceService{
		rules:       rules,
		drivers:     drivers,
		vehicles:    vehicles,
		inspections: inspections,
		inspectors:  inspectors,
		cache:       cache,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (s *ComplianceService) WithClock(now func() time.Time) *ComplianceService {
	if now != nil {
		s.now = now
	}
	return s
}

// Now returns the service clock reading.
func (s *ComplianceService) Now() time.Time {
	return s.now()
}

// Rules exposes the active rule set.
func (s *ComplianceService) Rules() *ComplianceRules {
	return s.rules
}

type fleetSnapshot struct {
	drivers     []models.Driver
	vehicles    []models.Vehicle
	inspections map[string][]models.AnnualInspection
	inspectors  []models.QualifiedInspector
}

func (s *ComplianceService) loadSnapshot(ctx context.Context, companyID string) (*fleetSnapshot, error) {
	active := true
	snap := &fleetSnapshot{}
	var inspections []models.AnnualInspection

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		defer func() { s.metrics.ObserveDBQuery("compliance_drivers", time.Since(start)) }()
		var err error
		snap.drivers, err = s.drivers.List(gctx, models.DriverFilter{CompanyID: companyID, Active: &active})
		return err
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { s.metrics.ObserveDBQuery("compliance_vehicles", time.Since(start)) }()
		var err error
		snap.vehicles, err = s.vehicles.List(gctx, models.VehicleFilter{CompanyID: companyID, Active: &active})
		return err
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { s.metrics.ObserveDBQuery("compliance_inspections", time.Since(start)) }()
		var err error
		inspections, err = s.inspections.List(gctx, models.InspectionFilter{CompanyID: companyID})
		return err
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { s.metrics.ObserveDBQuery("compliance_inspectors", time.Since(start)) }()
		var err error
		snap.inspectors, err = s.inspectors.List(gctx, models.InspectorFilter{CompanyID: companyID, Active: &active})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internalError(err, "failed to load compliance data")
	}
	snap.inspections = models.GroupInspectionsByVehicle(inspections)
	return snap, nil
}

func (s *ComplianceService) classify(rec compliance.Record, rule compliance.ExpirationRule, now time.Time) compliance.Status {
	status := compliance.Classify(rec, rule, now)
	s.metrics.RecordClassification(rule.Name, string(status.Category))
	return status
}

// Summary returns per-rule and per-company category counts plus the vehicles missing a current
// annual inspection. The boolean reports a cache hit.
func (s *ComplianceService) Summary(ctx context.Context, companyID string) (*dto.ComplianceSummary, bool, error) {
	now := s.now()
	scope := companyID
	if scope == "" {
		scope = "all"
	}
	key := cache.Key("compliance", "summary", scope, now.Format("2006-01-02"))
	if summary, hit, err := s.tryCache(ctx, key); err != nil {
		return nil, false, err
	} else if hit {
		return summary, true, nil
	}

	snap, err := s.loadSnapshot(ctx, companyID)
	if err != nil {
		return nil, false, err
	}

	summary := &dto.ComplianceSummary{
		CompanyID:                companyID,
		AsOf:                     now.Format("2006-01-02"),
		Rules:                    make(map[string]compliance.CategoryCounts),
		Companies:                make(map[string]compliance.CategoryCounts),
		VehiclesNeedingAttention: []dto.VehicleAttention{},
	}
	record := func(rule compliance.ExpirationRule, company string, status compliance.Status) {
		counts := summary.Rules[rule.Name]
		counts.Add(status.Category)
		summary.Rules[rule.Name] = counts

		perCompany := summary.Companies[company]
		perCompany.Add(status.Category)
		summary.Companies[company] = perCompany

		summary.Totals.Add(status.Category)
	}
	for _, rule := range s.rules.All() {
		summary.Rules[rule.Name] = compliance.CategoryCounts{}
	}

	for _, driver := range snap.drivers {
		record(s.rules.CDL, driver.CompanyID, s.classify(driver, s.rules.CDL, now))
		record(s.rules.Medical, driver.CompanyID, s.classify(driver, s.rules.Medical, now))
	}
	for _, vehicle := range snap.vehicles {
		record(s.rules.MaintenanceReview, vehicle.CompanyID, s.classify(vehicle, s.rules.MaintenanceReview, now))
		status := compliance.Status{Category: compliance.CategoryUnknown}
		if latest, ok := compliance.LatestRecord(snap.inspections[vehicle.ID], s.rules.AnnualInspection); ok {
			status = s.classify(latest, s.rules.AnnualInspection, now)
		}
		record(s.rules.AnnualInspection, vehicle.CompanyID, status)
	}
	for _, inspector := range snap.inspectors {
		record(s.rules.InspectorCertification, inspector.CompanyID, s.classify(inspector, s.rules.InspectorCertification, now))
	}

	for _, item := range compliance.AttentionReport(snap.vehicles, snap.inspections, s.rules.AnnualInspection, now) {
		summary.VehiclesNeedingAttention = append(summary.VehiclesNeedingAttention, dto.VehicleAttention{
			VehicleID:  item.Entity.ID,
			CompanyID:  item.Entity.CompanyID,
			UnitNumber: item.Entity.UnitNumber,
			Type:       item.Entity.Type,
			Reason:     string(item.Reason),
			Status:     item.Status,
		})
	}

	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

func (s *ComplianceService) tryCache(ctx context.Context, key string) (*dto.ComplianceSummary, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached dto.ComplianceSummary
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("compliance cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if hit {
		return &cached, true, nil
	}
	return nil, false, nil
}

func (s *ComplianceService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("compliance cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// DriverRow classifies one driver.
func (s *ComplianceService) DriverRow(driver models.Driver) dto.DriverRow {
	return s.driverRow(driver, s.now())
}

func (s *ComplianceService) driverRow(driver models.Driver, now time.Time) dto.DriverRow {
	cdl := s.classify(driver, s.rules.CDL, now)
	medical := s.classify(driver, s.rules.Medical, now)
	return dto.DriverRow{Driver: driver, CDLStatus: cdl, MedicalStatus: medical, Status: compliance.Worst(cdl, medical).Category}
}

// VehicleRow classifies one vehicle against its maintenance review and latest annual inspection.
func (s *ComplianceService) VehicleRow(vehicle models.Vehicle, inspections []models.AnnualInspection) dto.VehicleRow {
	return s.vehicleRow(vehicle, inspections, s.now())
}

func (s *ComplianceService) vehicleRow(vehicle models.Vehicle, inspections []models.AnnualInspection, now time.Time) dto.VehicleRow {
	row := dto.VehicleRow{
		Vehicle:           vehicle,
		MaintenanceStatus: s.classify(vehicle, s.rules.MaintenanceReview, now),
		InspectionStatus:  compliance.Status{Category: compliance.CategoryUnknown},
	}
	if latest, ok := compliance.LatestRecord(inspections, s.rules.AnnualInspection); ok {
		row.InspectionStatus = s.classify(latest, s.rules.AnnualInspection, now)
		id := latest.ID
		row.LatestInspectionID = &id
	}
	row.Status = compliance.Worst(row.MaintenanceStatus, row.InspectionStatus).Category
	return row
}

// InspectionRow classifies one annual inspection.
func (s *ComplianceService) InspectionRow(inspection models.AnnualInspection) dto.InspectionRow {
	return dto.InspectionRow{AnnualInspection: inspection, Status: s.classify(inspection, s.rules.AnnualInspection, s.now())}
}

// InspectorRow classifies one inspector certificate.
func (s *ComplianceService) InspectorRow(inspector models.QualifiedInspector) dto.InspectorRow {
	return dto.InspectorRow{QualifiedInspector: inspector, CertificationStatus: s.classify(inspector, s.rules.InspectorCertification, s.now())}
}

// Drivers lists classified drivers. q.Status filters by the worse of the two driver rules.
func (s *ComplianceService) Drivers(ctx context.Context, q models.ListQuery) ([]dto.DriverRow, *models.Pagination, error) {
	status, err := parseStatusFilter(q.Status)
	if err != nil {
		return nil, nil, err
	}
	drivers, err := s.drivers.List(ctx, models.DriverFilter{CompanyID: q.CompanyID, Active: q.Active})
	if err != nil {
		return nil, nil, internalError(err, "failed to list drivers")
	}
	now := s.now()
	rows := make([]dto.DriverRow, 0, len(drivers))
	for _, driver := range drivers {
		rows = append(rows, s.driverRow(driver, now))
	}
	rows = keepCategory(rows, status, func(r dto.DriverRow) compliance.Category { return r.Status })
	page, pagination := paginate(rows, q, driverSearchFields)
	return page, pagination, nil
}

// Vehicles lists classified vehicles, optionally of one type.
func (s *ComplianceService) Vehicles(ctx context.Context, q models.ListQuery, vehicleType models.VehicleType) ([]dto.VehicleRow, *models.Pagination, error) {
	status, err := parseStatusFilter(q.Status)
	if err != nil {
		return nil, nil, err
	}
	vehicles, err := s.vehicles.List(ctx, models.VehicleFilter{CompanyID: q.CompanyID, Type: vehicleType, Active: q.Active})
	if err != nil {
		return nil, nil, internalError(err, "failed to list vehicles")
	}
	ids := make([]string, 0, len(vehicles))
	for _, vehicle := range vehicles {
		ids = append(ids, vehicle.ID)
	}
	inspections, err := s.inspections.ListByVehicleIDs(ctx, ids)
	if err != nil {
		return nil, nil, internalError(err, "failed to list inspections")
	}
	grouped := models.GroupInspectionsByVehicle(inspections)

	now := s.now()
	rows := make([]dto.VehicleRow, 0, len(vehicles))
	for _, vehicle := range vehicles {
		rows = append(rows, s.vehicleRow(vehicle, grouped[vehicle.ID], now))
	}
	rows = keepCategory(rows, status, func(r dto.VehicleRow) compliance.Category { return r.Status })
	page, pagination := paginate(rows, q, vehicleSearchFields)
	return page, pagination, nil
}

// Inspections lists classified annual inspections, optionally for one vehicle.
func (s *ComplianceService) Inspections(ctx context.Context, q models.ListQuery, vehicleID string) ([]dto.InspectionRow, *models.Pagination, error) {
	status, err := parseStatusFilter(q.Status)
	if err != nil {
		return nil, nil, err
	}
	inspections, err := s.inspections.List(ctx, models.InspectionFilter{CompanyID: q.CompanyID, VehicleID: vehicleID})
	if err != nil {
		return nil, nil, internalError(err, "failed to list inspections")
	}
	now := s.now()
	rows := make([]dto.InspectionRow, 0, len(inspections))
	for _, inspection := range inspections {
		rows = append(rows, dto.InspectionRow{AnnualInspection: inspection, Status: s.classify(inspection, s.rules.AnnualInspection, now)})
	}
	rows = keepCategory(rows, status, func(r dto.InspectionRow) compliance.Category { return r.Status.Category })
	page, pagination := paginate(rows, q, inspectionSearchFields)
	return page, pagination, nil
}

// Inspectors lists classified inspectors.
func (s *ComplianceService) Inspectors(ctx context.Context, q models.ListQuery) ([]dto.InspectorRow, *models.Pagination, error) {
	status, err := parseStatusFilter(q.Status)
	if err != nil {
		return nil, nil, err
	}
	inspectors, err := s.inspectors.List(ctx, models.InspectorFilter{CompanyID: q.CompanyID, Active: q.Active})
	if err != nil {
		return nil, nil, internalError(err, "failed to list inspectors")
	}
	now := s.now()
	rows := make([]dto.InspectorRow, 0, len(inspectors))
	for _, inspector := range inspectors {
		rows = append(rows, dto.InspectorRow{QualifiedInspector: inspector, CertificationStatus: s.classify(inspector, s.rules.InspectorCertification, now)})
	}
	rows = keepCategory(rows, status, func(r dto.InspectorRow) compliance.Category { return r.CertificationStatus.Category })
	page, pagination := paginate(rows, q, inspectorSearchFields)
	return page, pagination, nil
}

// Alerts returns every entity needing attention, most urgent first. Vehicles without any
// annual inspection lead the list.
func (s *ComplianceService) Alerts(ctx context.Context, companyID string) ([]dto.AlertItem, error) {
	snap, err := s.loadSnapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	alerts := make([]dto.AlertItem, 0)

	for _, driver := range snap.drivers {
		for _, rule := range []compliance.ExpirationRule{s.rules.CDL, s.rules.Medical} {
			status := s.classify(driver, rule, now)
			if status.NeedsAttention() {
				alerts = append(alerts, newAlert(dto.EntityDriver, driver.ID, driver.FullName(), driver.CompanyID, rule.Name, string(status.Category), &status))
			}
		}
	}
	for _, vehicle := range snap.vehicles {
		status := s.classify(vehicle, s.rules.MaintenanceReview, now)
		if status.NeedsAttention() {
			alerts = append(alerts, newAlert(dto.EntityVehicle, vehicle.ID, vehicle.UnitNumber, vehicle.CompanyID, s.rules.MaintenanceReview.Name, string(status.Category), &status))
		}
	}
	for _, item := range compliance.AttentionReport(snap.vehicles, snap.inspections, s.rules.AnnualInspection, now) {
		vehicle := item.Entity
		alerts = append(alerts, newAlert(dto.EntityVehicle, vehicle.ID, vehicle.UnitNumber, vehicle.CompanyID, s.rules.AnnualInspection.Name, string(item.Reason), item.Status))
	}
	for _, inspector := range snap.inspectors {
		status := s.classify(inspector, s.rules.InspectorCertification, now)
		if status.NeedsAttention() {
			alerts = append(alerts, newAlert(dto.EntityInspector, inspector.ID, inspector.FullName, inspector.CompanyID, s.rules.InspectorCertification.Name, string(status.Category), &status))
		}
	}

	return compliance.SortRecords(alerts,
		compliance.SortSpec{Key: "days_remaining", Direction: compliance.Ascending},
		compliance.SortSpec{Key: "entity_name", Direction: compliance.Ascending},
	), nil
}

// AlertList is Alerts run through the shared list pipeline.
func (s *ComplianceService) AlertList(ctx context.Context, q models.ListQuery) ([]dto.AlertItem, *models.Pagination, error) {
	reason, err := parseAlertReason(q.Status)
	if err != nil {
		return nil, nil, err
	}
	alerts, err := s.Alerts(ctx, q.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	alerts = keepCategory(alerts, compliance.Category(reason), func(a dto.AlertItem) compliance.Category { return compliance.Category(a.Reason) })
	page, pagination := paginate(alerts, q, alertSearchFields)
	return page, pagination, nil
}

func newAlert(entityType, id, name, companyID, rule, reason string, status *compliance.Status) dto.AlertItem {
	item := dto.AlertItem{
		EntityType: entityType,
		EntityID:   id,
		EntityName: name,
		CompanyID:  companyID,
		Rule:       rule,
		Reason:     reason,
		Status:     status,
	}
	if status != nil {
		item.DaysRemaining = status.DaysRemaining
	}
	item.Message = alertMessage(entityType, name, rule, reason, status)
	return item
}

func alertMessage(entityType, name, rule, reason string, status *compliance.Status) string {
	if reason == string(compliance.ReasonMissingRecord) {
		return fmt.Sprintf("%s %s has no %s on file", entityType, name, ruleLabel(rule))
	}
	label := "needs attention"
	if status != nil {
		label = status.Label()
	}
	return fmt.Sprintf("%s %s: %s %s", entityType, name, ruleLabel(rule), label)
}

func ruleLabel(rule string) string {
	switch rule {
	case RuleCDL:
		return "CDL"
	case RuleMedical:
		return "medical card"
	case RuleMaintenanceReview:
		return "maintenance review"
	case RuleAnnualInspection:
		return "annual inspection"
	case RuleInspectorCertification:
		return "inspector certification"
	}
	return rule
}

// CheckTripEligibility verifies the driver and equipment of a trip. When anything blocks the
// trip the returned error is ErrComplianceBlocked carrying the reasons.
func (s *ComplianceService) CheckTripEligibility(ctx context.Context, driverID, truckID string, trailerID *string) (*dto.TripEligibility, error) {
	now := s.now()
	result := &dto.TripEligibility{Eligible: true, Reasons: []string{}}

	driver, err := s.drivers.FindByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "driver not found")
		}
		return nil, internalError(err, "failed to load driver")
	}
	if !driver.Active {
		result.Reasons = append(result.Reasons, fmt.Sprintf("driver %s is inactive", driver.FullName()))
	}
	for _, rule := range []compliance.ExpirationRule{s.rules.CDL, s.rules.Medical} {
		status := s.classify(*driver, rule, now)
		switch status.Category {
		case compliance.CategoryExpired:
			result.Reasons = append(result.Reasons, fmt.Sprintf("driver %s %s expired", driver.FullName(), ruleLabel(rule.Name)))
		case compliance.CategoryUnknown:
			result.Reasons = append(result.Reasons, fmt.Sprintf("driver %s %s expiration is unknown", driver.FullName(), ruleLabel(rule.Name)))
		}
	}

	equipment := []string{truckID}
	if trailerID != nil && *trailerID != "" {
		equipment = append(equipment, *trailerID)
	}
	inspections, err := s.inspections.ListByVehicleIDs(ctx, equipment)
	if err != nil {
		return nil, internalError(err, "failed to load inspections")
	}
	grouped := models.GroupInspectionsByVehicle(inspections)
	for _, id := range equipment {
		vehicle, err := s.vehicles.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
			}
			return nil, internalError(err, "failed to load vehicle")
		}
		label := fmt.Sprintf("%s %s", vehicleNoun(vehicle.Type), vehicle.UnitNumber)
		if !vehicle.Active {
			result.Reasons = append(result.Reasons, label+" is out of service")
		}
		latest, ok := compliance.LatestRecord(grouped[vehicle.ID], s.rules.AnnualInspection)
		if !ok {
			result.Reasons = append(result.Reasons, label+" has no annual inspection")
			continue
		}
		status := s.classify(latest, s.rules.AnnualInspection, now)
		switch status.Category {
		case compliance.CategoryExpired:
			result.Reasons = append(result.Reasons, label+" annual inspection expired")
		case compliance.CategoryUnknown:
			result.Reasons = append(result.Reasons, label+" annual inspection date is missing")
		}
	}

	if len(result.Reasons) > 0 {
		result.Eligible = false
		return result, appErrors.WithDetails(appErrors.ErrComplianceBlocked, "", result.Reasons)
	}
	return result, nil
}

func vehicleNoun(t models.VehicleType) string {
	if t == models.VehicleTypeTrailer {
		return "trailer"
	}
	return "truck"
}
