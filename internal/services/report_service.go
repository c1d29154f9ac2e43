package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
)

var exportHeader = []string{
	"Order Number", "Date", "Driver", "Customer", "Market",
	"Pickup Address", "Delivery Address", "Container Type",
	"Status", "Miles", "Driver Pay", "Notes",
}

type ReportServiceInterface interface {
	ExportCSV(ctx context.Context, filter types.Filter) ([]byte, error)
	ExportXLSX(ctx context.Context, filter types.Filter) ([]byte, error)
	ImportCSV(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error)
}

type ReportService struct {
	orderRepo       repositories.OrderRepositoryInterface
	userRepo        repositories.UserRepositoryInterface
	settingsService SettingsServiceInterface
	gatekeeper      *authz.Gatekeeper
	logger          *zap.Logger
}

func NewReportService(
	orderRepo repositories.OrderRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	settingsService SettingsServiceInterface,
	gatekeeper *authz.Gatekeeper,
	logger *zap.Logger,
) ReportServiceInterface {
	return &ReportService{
		orderRepo:       orderRepo,
		userRepo:        userRepo,
		settingsService: settingsService,
		gatekeeper:      gatekeeper,
		logger:          logger,
	}
}

// exportRows collects the export set. Drivers may export too, but only
// their own assignments.
func (s *ReportService) exportRows(ctx context.Context, filter types.Filter) ([]entities.Order, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case s.gatekeeper.Can(actor, authz.OrdersExport):
	case actor.Role == constants.RoleDriver:
		filter.DriverID = actor.ID
	default:
		return nil, apperrors.ErrForbidden
	}

	filter.Limit = 0
	orders, _, err := s.orderRepo.GetOrders(ctx, filter)
	return orders, err
}

func exportRecord(o *entities.Order) []string {
	return []string{
		o.OrderNumber,
		o.Date.Format("2006-01-02"),
		o.DriverName,
		o.CustomerName,
		o.Market,
		fmt.Sprintf("%s, %s, %s %s", o.PickupStreet, o.PickupCity, o.PickupState, o.PickupZip),
		fmt.Sprintf("%s, %s, %s %s", o.CustomerStreet, o.CustomerCity, o.CustomerState, o.CustomerZip),
		o.ContainerType,
		o.Status,
		strconv.FormatFloat(o.Miles, 'f', 1, 64),
		strconv.FormatFloat(o.DriverPay, 'f', 2, 64),
		o.Notes.String,
	}
}

func (s *ReportService) ExportCSV(ctx context.Context, filter types.Filter) ([]byte, error) {
	orders, err := s.exportRows(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := w.Write(exportRecord(&orders[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *ReportService) ExportXLSX(ctx context.Context, filter types.Filter) ([]byte, error) {
	orders, err := s.exportRows(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("closing xlsx workbook failed", zap.Error(err))
		}
	}()

	const sheet = "Orders"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}
	for rowIdx := range orders {
		record := exportRecord(&orders[rowIdx])
		for col, value := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportCSV loads orders from a CSV in the export column layout. Rows are
// validated independently: a bad row is reported and skipped, the rest are
// still imported.
func (s *ReportService) ImportCSV(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.OrdersImport) {
		return nil, apperrors.ErrForbidden
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewValidationError("empty or unreadable CSV file")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"order number", "date", "customer", "market"} {
		if _, ok := columns[required]; !ok {
			return nil, apperrors.NewValidationError("missing required column %q", required)
		}
	}

	drivers, err := s.driverIndex(ctx)
	if err != nil {
		return nil, err
	}
	week := s.settingsService.CurrentWeek(ctx)
	defaultPay := s.settingsService.DefaultPayRate(ctx)

	result := &dto.ImportResultDTO{Errors: []dto.ImportRowError{}}
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.TotalRows++
			result.FailedImports++
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.TotalRows++

		order, err := s.rowToOrder(record, columns, drivers, actor.ID, week, defaultPay)
		if err != nil {
			result.FailedImports++
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if _, err := s.orderRepo.CreateOrder(ctx, order); err != nil {
			result.FailedImports++
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.SuccessfulImports++
	}
	return result, nil
}

func (s *ReportService) driverIndex(ctx context.Context) (map[string]*entities.User, error) {
	users, err := s.userRepo.GetUsers(ctx, constants.RoleDriver, true, "")
	if err != nil {
		return nil, err
	}
	index := make(map[string]*entities.User, len(users))
	for i := range users {
		index[strings.ToLower(users[i].FullName)] = &users[i]
	}
	return index, nil
}

func (s *ReportService) rowToOrder(record []string, columns map[string]int, drivers map[string]*entities.User, actorID string, week int, defaultPay float64) (*entities.Order, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	orderNumber := field("order number")
	if orderNumber == "" {
		return nil, fmt.Errorf("order number is required")
	}
	date, err := time.Parse("2006-01-02", field("date"))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", field("date"))
	}
	customer := field("customer")
	if customer == "" {
		return nil, fmt.Errorf("customer is required")
	}

	order := &entities.Order{
		ID:             uuid.NewString(),
		OrderNumber:    orderNumber,
		Date:           date,
		DeliveryWindow: constants.WindowAM,
		WeekNumber:     week,
		Market:         field("market"),
		CustomerName:   customer,
		ContainerType:  field("container type"),
		Status:         constants.StatusDispatched,
		DriverName:     constants.UnassignedDriverName,
		DriverPay:      defaultPay,
		CreatedBy:      null.StringFrom(actorID),
	}

	if window := strings.ToUpper(field("window")); window == constants.WindowPM {
		order.DeliveryWindow = constants.WindowPM
	}
	if driverName := field("driver"); driverName != "" && !strings.EqualFold(driverName, constants.UnassignedDriverName) {
		if driver, ok := drivers[strings.ToLower(driverName)]; ok {
			order.DriverID = null.StringFrom(driver.ID)
			order.DriverName = driver.FullName
		} else {
			order.DriverName = driverName
		}
	}
	if miles := field("miles"); miles != "" {
		parsed, err := strconv.ParseFloat(miles, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("invalid miles %q", miles)
		}
		order.Miles = parsed
	}
	if pay := field("driver pay"); pay != "" {
		parsed, err := strconv.ParseFloat(pay, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("invalid driver pay %q", pay)
		}
		order.DriverPay = parsed
	}
	if notes := field("notes"); notes != "" {
		order.Notes = null.StringFrom(notes)
	}
	return order, nil
}
