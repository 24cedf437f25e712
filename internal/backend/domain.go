package backend

import "time"

// Product is a catalog entry as served by the backend.
type Product struct {
	ID       string  `json:"id"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
}

// Category groups products.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Customer is a customer record.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Transaction is a completed or voided sale.
type Transaction struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Customer  string    `json:"customer"`
	Cashier   string    `json:"cashier"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is a managed user as served by the backend.
type UserAccount struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// DashboardSummary aggregates the figures shown on the dashboard.
type DashboardSummary struct {
	TodaySales        float64 `json:"today_sales"`
	TodayTransactions int     `json:"today_transactions"`
	ActiveCustomers   int     `json:"active_customers"`
	LowStockCount     int     `json:"low_stock_count"`
}
