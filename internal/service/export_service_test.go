package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	"github.com/noah-isme/fleet-compliance-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T, f *fleetFixture) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(f.compliance, store, signer, ExportConfig{APIPrefix: "/fleet/v1/", ResultTTL: time.Hour}, zap.NewNop())
	return svc, store
}

func readExport(t *testing.T, store storage.Store, key string) string {
	t.Helper()
	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(body)
}

func TestExportServiceGenerateDriversCSV(t *testing.T) {
	f := newFleetFixture(t)
	svc, store := newExportServiceForTest(t, f)
	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeDrivers,
		Params: models.ReportJobParams{CompanyID: "c1", Format: models.ReportFormatCSV},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "c1/drivers_20260301_093000_job-1.csv", result.Key)
	assert.True(t, strings.HasPrefix(result.URL, "/fleet/v1/export/job-1."))
	assert.Equal(t, 3, result.Rows)

	body := readExport(t, store, result.Key)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Driver,License,CDL Expires,CDL,Medical Expires,Medical,Status", lines[0])
	assert.Contains(t, body, "Carl Expired,TX C3,2026-02-01,overdue by 28 days,")

	jobID, key, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.Key, key)
}

func TestExportServiceAppliesListParams(t *testing.T) {
	f := newFleetFixture(t)
	svc, store := newExportServiceForTest(t, f)
	job := &models.ReportJob{
		ID:     "job-2",
		Type:   models.ReportTypeAlerts,
		Params: models.ReportJobParams{CompanyID: "c1", Format: models.ReportFormatCSV, Status: "expired", SortBy: "entity_name"},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)

	lines := strings.Split(strings.TrimSpace(readExport(t, store, result.Key)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "Carl Expired,driver,CDL,expired,-28,"))
	assert.True(t, strings.HasPrefix(lines[2], "Ivy Inspector,inspector,inspector certification,expired,-9,"))
}

func TestExportServiceCollectsEveryPage(t *testing.T) {
	f := newFleetFixture(t)
	for i := 0; i < 150; i++ {
		f.drivers.put(models.Driver{ID: fmt.Sprintf("bulk-%03d", i), CompanyID: "c2", FirstName: "Bulk", LastName: fmt.Sprint(i), Active: true})
	}
	svc, _ := newExportServiceForTest(t, f)

	result, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypeDrivers,
		Params: models.ReportJobParams{CompanyID: "c2", Format: models.ReportFormatCSV},
	})
	require.NoError(t, err)
	assert.Equal(t, 151, result.Rows)
	assert.True(t, strings.HasPrefix(result.Key, "c2/"))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	f := newFleetFixture(t)
	svc, store := newExportServiceForTest(t, f)

	result, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-4",
		Type:   models.ReportTypeVehicles,
		Params: models.ReportJobParams{Format: models.ReportFormatPDF},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatPDF, result.Format)
	assert.True(t, strings.HasPrefix(result.Key, "all/vehicles_"))
	assert.True(t, bytes.HasPrefix([]byte(readExport(t, store, result.Key)), []byte("%PDF")))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	f := newFleetFixture(t)
	svc, _ := newExportServiceForTest(t, f)

	_, err := svc.Generate(context.Background(), &models.ReportJob{ID: "job-5", Type: models.ReportTypeDrivers, Params: models.ReportJobParams{Format: "xlsx"}})
	assert.Error(t, err)
}
