package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
	q Executor
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{q: db.Pool}
}

// Create inserts the order with all item and addon lines. Callers must run
// this inside a transaction so the rows commit together. A duplicate
// payment_reference surfaces as ErrDuplicateReference so the reconciliation
// engine can fall back to fetching the existing order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, owner_id, payment_reference,
			subtotal, discount_amount, shipping_amount, total_amount,
			status, payment_status, delivery_method, delivery_address,
			delivery_phone, requires_review, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	m := orderToModel(order)
	_, err := r.q.Exec(ctx, query,
		m.ID,
		m.OrderNumber,
		m.OwnerID,
		m.PaymentReference,
		m.Subtotal,
		m.DiscountAmount,
		m.ShippingAmount,
		m.TotalAmount,
		m.Status,
		m.PaymentStatus,
		m.DeliveryMethod,
		m.DeliveryAddress,
		m.DeliveryPhone,
		m.RequiresReview,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("order for %s: %w", order.PaymentReference, ErrDuplicateReference)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		if err := r.createItem(ctx, &item); err != nil {
			return err
		}
	}

	return nil
}

func (r *OrderRepository) createItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.Exec(ctx, query,
		item.ID, item.OrderID, item.ProductID, item.Name,
		item.Quantity, item.UnitPrice, item.LineTotal,
	)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}

	for _, addon := range item.Addons {
		addonQuery := `
			INSERT INTO order_item_addons (id, order_item_id, addon_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err := r.q.Exec(ctx, addonQuery,
			addon.ID, item.ID, addon.AddonID, addon.Name, addon.Quantity, addon.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item addon: %w", err)
		}
	}

	return nil
}

func (r *OrderRepository) FindByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return r.findOne(ctx, "payment_reference = $1", reference)
}

func (r *OrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.findOne(ctx, "order_number = $1", orderNumber)
}

func (r *OrderRepository) findOne(ctx context.Context, where string, arg any) (*domain.Order, error) {
	query := `
		SELECT id, order_number, owner_id, payment_reference,
		       subtotal, discount_amount, shipping_amount, total_amount,
		       status, payment_status, delivery_method, delivery_address,
		       delivery_phone, requires_review, created_at, updated_at
		FROM orders WHERE ` + where

	var m OrderModel
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.OrderNumber, &m.OwnerID, &m.PaymentReference,
		&m.Subtotal, &m.DiscountAmount, &m.ShippingAmount, &m.TotalAmount,
		&m.Status, &m.PaymentStatus, &m.DeliveryMethod, &m.DeliveryAddress,
		&m.DeliveryPhone, &m.RequiresReview, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	order := orderToDomain(m)
	order.Items, err = r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, quantity, unit_price, line_total
		FROM order_items WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var m OrderItemModel
		err := row.Scan(&m.ID, &m.OrderID, &m.ProductID, &m.Name, &m.Quantity, &m.UnitPrice, &m.LineTotal)
		return domain.OrderItem{
			ID:        m.ID,
			OrderID:   m.OrderID,
			ProductID: m.ProductID,
			Name:      m.Name,
			Quantity:  m.Quantity,
			UnitPrice: m.UnitPrice,
			LineTotal: m.LineTotal,
		}, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order items: %w", err)
	}

	for i := range items {
		items[i].Addons, err = r.loadAddons(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return items, nil
}

func (r *OrderRepository) loadAddons(ctx context.Context, itemID uuid.UUID) ([]domain.OrderItemAddon, error) {
	query := `
		SELECT id, addon_id, name, quantity, unit_price
		FROM order_item_addons WHERE order_item_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("query order item addons: %w", err)
	}

	addons, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItemAddon, error) {
		var a domain.OrderItemAddon
		err := row.Scan(&a.ID, &a.AddonID, &a.Name, &a.Quantity, &a.UnitPrice)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order item addons: %w", err)
	}

	return addons, nil
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.OrderPaymentStatus) error {
	query := `UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.Exec(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update order payment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}
