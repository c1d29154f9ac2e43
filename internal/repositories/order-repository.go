package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
)

const orderTable = "orders"

const orderSelectFields = `id, order_number, date, delivery_window, week_number, market,
	driver_id, driver_name,
	pickup_street, pickup_city, pickup_state, pickup_zip,
	customer_name, customer_street, customer_city, customer_state, customer_zip, customer_phone,
	container_type, container_condition, door_position, release_number, miles, driver_pay, notes,
	status, status_reason,
	is_dispatched, is_loaded, is_notified, is_delayed, is_cancelled, is_delivered, is_locked, is_archived,
	created_by, created_at, updated_at`

// orderUpdatableColumns whitelists what UpdateOrderFields may touch. The
// status booleans and lock flag go through the status machine instead.
var orderUpdatableColumns = map[string]bool{
	"order_number": true, "date": true, "delivery_window": true, "week_number": true,
	"market": true, "driver_id": true, "driver_name": true,
	"pickup_street": true, "pickup_city": true, "pickup_state": true, "pickup_zip": true,
	"customer_name": true, "customer_street": true, "customer_city": true,
	"customer_state": true, "customer_zip": true, "customer_phone": true,
	"container_type": true, "container_condition": true, "door_position": true,
	"release_number": true, "miles": true, "driver_pay": true, "notes": true,
}

type OrderRepositoryInterface interface {
	GetOrders(ctx context.Context, filter types.Filter) ([]entities.Order, uint64, error)
	FindOrder(ctx context.Context, id string) (*entities.Order, error)
	FindOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id string) (*entities.Order, error)
	FindOrdersForUpdateInTx(ctx context.Context, tx pgx.Tx, ids []string) ([]entities.Order, error)
	CreateOrder(ctx context.Context, order *entities.Order) (*entities.Order, error)
	UpdateOrderFields(ctx context.Context, id string, updates map[string]interface{}) error
	SaveStatusInTx(ctx context.Context, tx pgx.Tx, order *entities.Order) error
	DeleteOrder(ctx context.Context, id string) error
	DeleteOrders(ctx context.Context, ids []string) (int64, error)
	BulkReassignDriver(ctx context.Context, ids []string, driverID, driverName string) (int64, error)
	ArchiveDelivered(ctx context.Context, weekNumber int) (int64, error)
	UnassignFutureOrders(ctx context.Context, driverID string, cutoff time.Time) (int64, error)
	CountActiveOrdersByDriver(ctx context.Context, driverID string) (int64, error)
	StatusCounts(ctx context.Context, filter types.Filter) (map[string]int64, error)
	MarketCounts(ctx context.Context, filter types.Filter) (map[string]int64, error)
	RevenueAndMiles(ctx context.Context, filter types.Filter) (revenue, totalMiles float64, deliveredCount int64, err error)
	OrdersPerDay(ctx context.Context, filter types.Filter) ([]types.DayCount, error)
	DriverStats(ctx context.Context, filter types.Filter) ([]types.DriverStats, error)
}

type OrderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderRepositoryInterface {
	return &OrderRepository{storage: storage, logger: logger}
}

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var o entities.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Date, &o.DeliveryWindow, &o.WeekNumber, &o.Market,
		&o.DriverID, &o.DriverName,
		&o.PickupStreet, &o.PickupCity, &o.PickupState, &o.PickupZip,
		&o.CustomerName, &o.CustomerStreet, &o.CustomerCity, &o.CustomerState, &o.CustomerZip, &o.CustomerPhone,
		&o.ContainerType, &o.ContainerCondition, &o.DoorPosition, &o.ReleaseNumber, &o.Miles, &o.DriverPay, &o.Notes,
		&o.Status, &o.StatusReason,
		&o.IsDispatched, &o.IsLoaded, &o.IsNotified, &o.IsDelayed, &o.IsCancelled, &o.IsDelivered, &o.IsLocked, &o.IsArchived,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// orderConditions translates the request filter into squirrel predicates.
func orderConditions(filter types.Filter) sq.And {
	conds := sq.And{}
	if !filter.IncludeArchived {
		conds = append(conds, sq.Eq{"is_archived": false})
	}
	if len(filter.Status) > 0 {
		conds = append(conds, sq.Eq{"status": filter.Status})
	}
	if filter.DriverID != "" {
		conds = append(conds, sq.Eq{"driver_id": filter.DriverID})
	}
	if filter.WeekNumber != 0 {
		conds = append(conds, sq.Eq{"week_number": filter.WeekNumber})
	}
	if filter.StartDate != "" {
		conds = append(conds, sq.GtOrEq{"date": filter.StartDate})
	}
	if filter.EndDate != "" {
		conds = append(conds, sq.LtOrEq{"date": filter.EndDate})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"order_number": pattern},
			sq.ILike{"customer_name": pattern},
			sq.ILike{"driver_name": pattern},
			sq.ILike{"market": pattern},
		})
	}
	return conds
}

func (r *OrderRepository) GetOrders(ctx context.Context, filter types.Filter) ([]entities.Order, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	conds := orderConditions(filter)

	countSQL, countArgs, err := psql.Select("COUNT(id)").From(orderTable).Where(conds).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var totalCount uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	if totalCount == 0 {
		return []entities.Order{}, 0, nil
	}

	qb := psql.Select(orderSelectFields).From(orderTable).Where(conds).
		OrderBy("date ASC", "delivery_window ASC", "order_number ASC")
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}
	querySQL, queryArgs, err := qb.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, querySQL, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := make([]entities.Order, 0, filter.Limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, totalCount, rows.Err()
}

func (r *OrderRepository) FindOrder(ctx context.Context, id string) (*entities.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", orderSelectFields, orderTable)
	return scanOrder(r.storage.QueryRow(ctx, query, id))
}

func (r *OrderRepository) FindOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id string) (*entities.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 FOR UPDATE", orderSelectFields, orderTable)
	return scanOrder(tx.QueryRow(ctx, query, id))
}

func (r *OrderRepository) FindOrdersForUpdateInTx(ctx context.Context, tx pgx.Tx, ids []string) ([]entities.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ANY($1) FOR UPDATE", orderSelectFields, orderTable)
	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("select orders for update: %w", err)
	}
	defer rows.Close()

	orders := make([]entities.Order, 0, len(ids))
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *entities.Order) (*entities.Order, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, order_number, date, delivery_window, week_number, market,
			driver_id, driver_name,
			pickup_street, pickup_city, pickup_state, pickup_zip,
			customer_name, customer_street, customer_city, customer_state, customer_zip, customer_phone,
			container_type, container_condition, door_position, release_number, miles, driver_pay, notes,
			status, status_reason, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
		)
		RETURNING %s`, orderTable, orderSelectFields)

	created, err := scanOrder(r.storage.QueryRow(ctx, query,
		order.ID, order.OrderNumber, order.Date, order.DeliveryWindow, order.WeekNumber, order.Market,
		order.DriverID, order.DriverName,
		order.PickupStreet, order.PickupCity, order.PickupState, order.PickupZip,
		order.CustomerName, order.CustomerStreet, order.CustomerCity, order.CustomerState, order.CustomerZip, order.CustomerPhone,
		order.ContainerType, order.ContainerCondition, order.DoorPosition, order.ReleaseNumber, order.Miles, order.DriverPay, order.Notes,
		order.Status, order.StatusReason, order.CreatedBy,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return created, nil
}

func (r *OrderRepository) UpdateOrderFields(ctx context.Context, id string, updates map[string]interface{}) error {
	setMap := make(map[string]interface{}, len(updates))
	for column, value := range updates {
		if !orderUpdatableColumns[column] {
			return apperrors.NewValidationError("field %q cannot be updated directly", column)
		}
		setMap[column] = value
	}
	setMap["updated_at"] = sq.Expr("now()")

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(orderTable).SetMap(setMap).
		Where(sq.Eq{"id": id, "is_locked": false}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveStatusInTx persists the status machine outcome for a row previously
// locked with FindOrderForUpdateInTx.
func (r *OrderRepository) SaveStatusInTx(ctx context.Context, tx pgx.Tx, order *entities.Order) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			status = $2, status_reason = $3,
			is_dispatched = $4, is_loaded = $5, is_notified = $6,
			is_delayed = $7, is_cancelled = $8, is_delivered = $9,
			is_locked = $10, updated_at = now()
		WHERE id = $1`, orderTable)

	tag, err := tx.Exec(ctx, query,
		order.ID, order.Status, order.StatusReason,
		order.IsDispatched, order.IsLoaded, order.IsNotified,
		order.IsDelayed, order.IsCancelled, order.IsDelivered,
		order.IsLocked,
	)
	if err != nil {
		return fmt.Errorf("save order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) error {
	tag, err := r.storage.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", orderTable), id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) DeleteOrders(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.storage.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", orderTable), ids)
	if err != nil {
		return 0, fmt.Errorf("delete orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// BulkReassignDriver rewrites the assignment snapshot for unlocked rows
// only and reports how many were actually touched.
func (r *OrderRepository) BulkReassignDriver(ctx context.Context, ids []string, driverID, driverName string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET driver_id = $2, driver_name = $3, updated_at = now()
		WHERE id = ANY($1) AND is_locked = false`, orderTable)

	tag, err := r.storage.Exec(ctx, query, ids, driverID, driverName)
	if err != nil {
		return 0, fmt.Errorf("bulk reassign driver: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *OrderRepository) ArchiveDelivered(ctx context.Context, weekNumber int) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET is_archived = true, updated_at = now()
		WHERE week_number = $1 AND status = $2 AND is_archived = false`, orderTable)

	tag, err := r.storage.Exec(ctx, query, weekNumber, constants.StatusDelivered)
	if err != nil {
		return 0, fmt.Errorf("archive delivered orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UnassignFutureOrders clears the assignment on every non-terminal order of
// the driver dated at or after the cutoff. Past orders stay untouched.
func (r *OrderRepository) UnassignFutureOrders(ctx context.Context, driverID string, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET driver_id = NULL, driver_name = $3, updated_at = now()
		WHERE driver_id = $1 AND date >= $2 AND NOT (status = ANY($4))`, orderTable)

	tag, err := r.storage.Exec(ctx, query, driverID, cutoff, constants.UnassignedDriverName, constants.TerminalStatuses)
	if err != nil {
		return 0, fmt.Errorf("unassign future orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *OrderRepository) CountActiveOrdersByDriver(ctx context.Context, driverID string) (int64, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(id) FROM %s
		WHERE driver_id = $1 AND NOT (status = ANY($2)) AND is_archived = false`, orderTable)

	var count int64
	if err := r.storage.QueryRow(ctx, query, driverID, constants.TerminalStatuses).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active orders: %w", err)
	}
	return count, nil
}

func (r *OrderRepository) StatusCounts(ctx context.Context, filter types.Filter) (map[string]int64, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("status", "COUNT(id)").From(orderTable).
		Where(orderConditions(filter)).
		GroupBy("status").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *OrderRepository) MarketCounts(ctx context.Context, filter types.Filter) (map[string]int64, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("market", "COUNT(id)").From(orderTable).
		Where(orderConditions(filter)).
		GroupBy("market").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count orders by market: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var market string
		var count int64
		if err := rows.Scan(&market, &count); err != nil {
			return nil, err
		}
		counts[market] = count
	}
	return counts, rows.Err()
}

func (r *OrderRepository) RevenueAndMiles(ctx context.Context, filter types.Filter) (float64, float64, int64, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(
			"COALESCE(SUM(driver_pay) FILTER (WHERE status = 'delivered'), 0)",
			"COALESCE(SUM(miles), 0)",
			"COUNT(id) FILTER (WHERE status = 'delivered')",
		).
		From(orderTable).
		Where(orderConditions(filter)).ToSql()
	if err != nil {
		return 0, 0, 0, err
	}

	var revenue, totalMiles float64
	var deliveredCount int64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&revenue, &totalMiles, &deliveredCount); err != nil {
		return 0, 0, 0, fmt.Errorf("aggregate revenue and miles: %w", err)
	}
	return revenue, totalMiles, deliveredCount, nil
}

func (r *OrderRepository) OrdersPerDay(ctx context.Context, filter types.Filter) ([]types.DayCount, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("date::date", "COUNT(id)").From(orderTable).
		Where(orderConditions(filter)).
		GroupBy("date::date").OrderBy("date::date ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count orders per day: %w", err)
	}
	defer rows.Close()

	result := make([]types.DayCount, 0)
	for rows.Next() {
		var day time.Time
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		result = append(result, types.DayCount{Date: day.Format("2006-01-02"), Count: count})
	}
	return result, rows.Err()
}

func (r *OrderRepository) DriverStats(ctx context.Context, filter types.Filter) ([]types.DriverStats, error) {
	conds := orderConditions(filter)
	conds = append(conds, sq.NotEq{"driver_id": nil})

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(
			"driver_id", "driver_name",
			"COUNT(id)",
			"COUNT(id) FILTER (WHERE status = 'delivered')",
			"COALESCE(SUM(miles), 0)",
			"COALESCE(SUM(driver_pay) FILTER (WHERE status = 'delivered'), 0)",
			"COUNT(id) FILTER (WHERE status = 'delivered' AND NOT is_delayed)",
		).
		From(orderTable).
		Where(conds).
		GroupBy("driver_id", "driver_name").
		OrderBy("COUNT(id) DESC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate driver stats: %w", err)
	}
	defer rows.Close()

	result := make([]types.DriverStats, 0)
	for rows.Next() {
		var s types.DriverStats
		var onTime int64
		if err := rows.Scan(&s.DriverID, &s.DriverName, &s.TotalOrders, &s.CompletedOrders, &s.TotalMiles, &s.TotalEarnings, &onTime); err != nil {
			return nil, err
		}
		if s.CompletedOrders > 0 {
			s.OnTimeRate = float64(onTime) / float64(s.CompletedOrders)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
