package services

import (
	"strings"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/types"
)

func newReportFixture(orders ...*entities.Order) (ReportServiceInterface, *fakeUserRepo) {
	users := &fakeUserRepo{usersByID: map[string]*entities.User{
		"d1": {ID: "d1", FullName: "Dan Driver", Role: constants.RoleDriver, IsActive: true},
	}}
	svc := NewReportService(newFakeOrderRepo(orders...), users, &fakeSettings{week: 1, payRate: 300}, authz.NewGatekeeper(), zap.NewNop())
	return svc, users
}

func TestExportCSVLayout(t *testing.T) {
	svc, _ := newReportFixture(testOrder("o1", func(o *entities.Order) {
		o.DriverName = "Dan Driver"
		o.CustomerName = "Jo Smith"
		o.Miles = 42.5
		o.DriverPay = 410
		o.Notes = null.StringFrom("call ahead")
	}))
	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})

	data, err := svc.ExportCSV(ctx, types.Filter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Order Number,Date,Driver,Customer,Market,Pickup Address,Delivery Address,Container Type,Status,Miles,Driver Pay,Notes", lines[0])
	assert.Contains(t, lines[1], "ORD-o1")
	assert.Contains(t, lines[1], "42.5")
	assert.Contains(t, lines[1], "410.00")
	assert.Contains(t, lines[1], "call ahead")
}

func TestExportXLSXReadsBack(t *testing.T) {
	svc, _ := newReportFixture(testOrder("o1"))
	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})

	data, err := svc.ExportXLSX(ctx, types.Filter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Order Number", rows[0][0])
	assert.Equal(t, "ORD-o1", rows[1][0])
}

func TestExportScopedForDriver(t *testing.T) {
	svc, _ := newReportFixture(
		testOrder("mine", func(o *entities.Order) {
			o.DriverID = null.StringFrom("d1")
			o.DriverName = "Dan Driver"
		}),
		testOrder("other"),
	)
	ctx := ctxWithActor(&entities.User{ID: "d1", Role: constants.RoleDriver, IsActive: true})

	data, err := svc.ExportCSV(ctx, types.Filter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "drivers only export their own assignments")
	assert.Contains(t, lines[1], "ORD-mine")
}

func TestImportCSVMixedRows(t *testing.T) {
	svc, _ := newReportFixture()
	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})

	input := strings.Join([]string{
		"Order Number,Date,Driver,Customer,Market,Miles,Driver Pay",
		"ORD-2001,2026-09-05,Dan Driver,Jo Smith,Dallas,12.5,400",
		"ORD-2002,not-a-date,Dan Driver,Jo Smith,Dallas,1,1",
		"ORD-2003,2026-09-06,Someone Unknown,Ann Lee,Austin,,",
	}, "\n")

	result, err := svc.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.SuccessfulImports)
	assert.Equal(t, 1, result.FailedImports)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "not-a-date")
}

func TestImportCSVMissingColumn(t *testing.T) {
	svc, _ := newReportFixture()
	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})

	_, err := svc.ImportCSV(ctx, strings.NewReader("Order Number,Driver\nORD-1,Dan"))
	assert.Error(t, err)
}
