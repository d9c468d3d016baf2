package service

import (
	"cmp"
	"fmt"
	"strconv"
	"time"

	"storefront/admin/internal/client"
	"storefront/admin/internal/config"
	"storefront/admin/internal/domain"
	"storefront/admin/internal/table"
)

const (
	TableCategories = "categories"
	TableOrders     = "orders"
	TableProducts   = "products"
	TableColors     = "colors"
	TableSizes      = "sizes"
	TableUsers      = "users"
)

const dateLayout = "2006-01-02"

// NewTables builds one controller per admin screen over the given backend
func NewTables(backend client.BackendClient, cfg config.TableConfig, options ...table.ControllerOption) map[string]table.Table {
	return map[string]table.Table{
		TableCategories: table.NewController(
			client.NewResource[domain.Category](backend, TableCategories),
			categoryOptions(cfg), options...),
		TableOrders: table.NewController(
			client.NewResource[domain.Order](backend, TableOrders),
			orderOptions(cfg), options...),
		TableProducts: table.NewController(
			client.NewResource(backend, TableProducts, client.WithNormalizer(client.NormalizeProduct)),
			productOptions(cfg), options...),
		TableColors: table.NewController(
			client.NewResource[domain.Color](backend, TableColors),
			colorOptions(cfg), options...),
		TableSizes: table.NewController(
			client.NewResource[domain.Size](backend, TableSizes),
			sizeOptions(cfg), options...),
		TableUsers: table.NewController(
			client.NewResource[domain.User](backend, TableUsers),
			userOptions(cfg), options...),
	}
}

func categoryOptions(cfg config.TableConfig) table.Options[domain.Category] {
	return table.Options[domain.Category]{
		Name:        TableCategories,
		BasePath:    "/admin/categories",
		ID:          func(c domain.Category) string { return c.ID },
		FilterField: func(c domain.Category) string { return c.Title },
		Columns: []table.Column[domain.Category]{
			{Key: "title", Title: "Title", Value: func(c domain.Category) string { return c.Title }},
			{Key: "parent", Title: "Parent", Value: func(c domain.Category) string { return c.ParentID() }},
			createdColumn[domain.Category](func(c domain.Category) time.Time { return c.CreatedAt }),
		},
		Dependents: func(c domain.Category, all []domain.Category) []domain.Category { return c.Children(all) },
		PageSize:   cfg.PageSize,
		MaxWorkers: cfg.MaxWorkers,
	}
}

func orderOptions(cfg config.TableConfig) table.Options[domain.Order] {
	return table.Options[domain.Order]{
		Name:        TableOrders,
		BasePath:    "/admin/orders",
		ID:          func(o domain.Order) string { return o.ID },
		Label:       func(o domain.Order) string { return "#" + o.ShortID() },
		FilterField: func(o domain.Order) string { return o.ShortID() },
		Columns: []table.Column[domain.Order]{
			{Key: "order", Title: "Order", Value: func(o domain.Order) string { return "#" + o.ShortID() }},
			{Key: "customer", Title: "Customer", Value: func(o domain.Order) string { return o.Customer.String() }},
			{Key: "items", Title: "Items",
				Value:   func(o domain.Order) string { return strconv.Itoa(len(o.Items)) },
				Compare: func(a, b domain.Order) int { return cmp.Compare(len(a.Items), len(b.Items)) }},
			{Key: "total", Title: "Total",
				Value:   func(o domain.Order) string { return money(o.Total) },
				Compare: func(a, b domain.Order) int { return cmp.Compare(a.Total, b.Total) }},
			{Key: "status", Title: "Status", Value: func(o domain.Order) string { return string(o.Status) }},
			createdColumn[domain.Order](func(o domain.Order) time.Time { return o.CreatedAt }),
		},
		PageSize:   cfg.PageSize,
		MaxWorkers: cfg.MaxWorkers,
	}
}

func productOptions(cfg config.TableConfig) table.Options[domain.Product] {
	return table.Options[domain.Product]{
		Name:        TableProducts,
		BasePath:    "/admin/products",
		ID:          func(p domain.Product) string { return p.ID },
		FilterField: func(p domain.Product) string { return p.Title },
		Columns: []table.Column[domain.Product]{
			{Key: "title", Title: "Title", Value: func(p domain.Product) string { return p.Title }},
			{Key: "price", Title: "Price",
				Value:   func(p domain.Product) string { return money(p.Price) },
				Compare: func(a, b domain.Product) int { return cmp.Compare(a.Price, b.Price) }},
			{Key: "stock", Title: "Stock",
				Value:   func(p domain.Product) string { return strconv.Itoa(p.Stock) },
				Compare: func(a, b domain.Product) int { return cmp.Compare(a.Stock, b.Stock) }},
			{Key: "categories", Title: "Categories", Value: func(p domain.Product) string { return domain.JoinRefs(p.Categories) }},
			{Key: "colors", Title: "Colors", Value: func(p domain.Product) string { return domain.JoinRefs(p.Colors) }},
			{Key: "sizes", Title: "Sizes", Value: func(p domain.Product) string { return domain.JoinRefs(p.Sizes) }},
			{Key: "summary", Title: "Summary", Value: func(p domain.Product) string { return truncate(p.Summary, 40) }},
		},
		PageSize:   cfg.PageSize,
		MaxWorkers: cfg.MaxWorkers,
	}
}

func colorOptions(cfg config.TableConfig) table.Options[domain.Color] {
	return table.Options[domain.Color]{
		Name:        TableColors,
		BasePath:    "/admin/colors",
		ID:          func(c domain.Color) string { return c.ID },
		FilterField: func(c domain.Color) string { return c.Name },
		Columns: []table.Column[domain.Color]{
			{Key: "name", Title: "Name", Value: func(c domain.Color) string { return c.Name }},
			{Key: "hex", Title: "Hex", Value: func(c domain.Color) string { return c.Hex }},
			createdColumn[domain.Color](func(c domain.Color) time.Time { return c.CreatedAt }),
		},
		PageSize:   cfg.PageSize,
		MaxWorkers: cfg.MaxWorkers,
	}
}

func sizeOptions(cfg config.TableConfig) table.Options[domain.Size] {
	return table.Options[domain.Size]{
		Name:        TableSizes,
		BasePath:    "/admin/sizes",
		ID:          func(s domain.Size) string { return s.ID },
		FilterField: func(s domain.Size) string { return s.Name },
		Columns: []table.Column[domain.Size]{
			{Key: "name", Title: "Name", Value: func(s domain.Size) string { return s.Name }},
			createdColumn[domain.Size](func(s domain.Size) time.Time { return s.CreatedAt }),
		},
		PageSize:   cfg.PageSize,
		MaxWorkers: cfg.MaxWorkers,
	}
}

func userOptions(cfg config.TableConfig) table.Options[domain.User] {
	return table.Options[domain.User]{
		Name:        TableUsers,
		BasePath:    "/admin/users",
		ID:          func(u domain.User) string { return u.ID },
		Label:       func(u domain.User) string { return u.Email },
		FilterField: func(u domain.User) string { return u.Name + " " + u.Email },
		Columns: []table.Column[domain.User]{
			{Key: "name", Title: "Name", Value: func(u domain.User) string { return u.Name }},
			{Key: "email", Title: "Email", Value: func(u domain.User) string { return u.Email }},
			{Key: "role", Title: "Role", Value: func(u domain.User) string { return string(u.Role) }},
			createdColumn[domain.User](func(u domain.User) time.Time { return u.CreatedAt }),
		},
		PageSize:   cfg.PageSize,
		MaxWorkers: cfg.MaxWorkers,
	}
}

func createdColumn[T any](created func(T) time.Time) table.Column[T] {
	return table.Column[T]{
		Key:   "created",
		Title: "Created",
		Value: func(item T) string {
			if t := created(item); !t.IsZero() {
				return t.Format(dateLayout)
			}
			return ""
		},
		Compare: func(a, b T) int { return created(a).Compare(created(b)) },
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
