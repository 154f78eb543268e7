package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	ClientID    uint
	Status      string
	PaymentRef  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// OrderItemListFilter 查询订单行列表的过滤条件
type OrderItemListFilter struct {
	Page          int
	PageSize      int
	OrderID       uint
	PartnerID     uint
	PayoutID      uint
	PartnerStatus string
	Liquidated    *bool
	Unassigned    bool
}

// PayoutListFilter 查询结算单列表的过滤条件
type PayoutListFilter struct {
	Page       int
	PageSize   int
	PartnerID  uint
	Status     string
	PeriodFrom *time.Time
	PeriodTo   *time.Time
}

// PartnerListFilter 查询合作商列表的过滤条件
type PartnerListFilter struct {
	Page       int
	PageSize   int
	Keyword    string
	OnlyActive bool
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	CategoryID uint
	SupplierID uint
	Search     string
	OnlyActive bool
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Role     string
	Keyword  string
	Status   string
}
