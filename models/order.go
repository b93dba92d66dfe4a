package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// prices and amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type OrderStatus string

func (s OrderStatus) String() string {
	return string(s)
}

// Order statuses in lifecycle order.
const (
	OrderUnallotted OrderStatus = "unallotted"
	OrderAllotted   OrderStatus = "allotted"
	OrderPlaced     OrderStatus = "placed"
	OrderConfirmed  OrderStatus = "confirmed"
)

// Assignee is the user an order is allotted to.
type Assignee struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

type Order struct {
	ID           string          `json:"id"`
	OrderCode    string          `json:"orderId,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"productName"`
	BrandName    string          `json:"brandName,omitempty"`
	Season       string          `json:"season,omitempty"`
	Address      string          `json:"address"`
	OtherAddress string          `json:"otherAddress,omitempty"`
	ReviewerName string          `json:"reviewerName,omitempty"`
	MediatorName string          `json:"mediatorName,omitempty"`
	Link         string          `json:"link,omitempty"`
	ReceiptURL   string          `json:"screenshot,omitempty"`
	Status       OrderStatus     `json:"status"`
	Assignee     *Assignee       `json:"assignee,omitempty"`
	SubmittedAt  time.Time       `json:"submittedAt"`
}

func (o *Order) Allotted() bool {
	return o.Status != OrderUnallotted
}

func (o *Order) Placed() bool {
	return o.Status == OrderPlaced || o.Status == OrderConfirmed
}

func (o *Order) Confirmed() bool {
	return o.Status == OrderConfirmed
}

// NewOrder is the administrative import payload.
type NewOrder struct {
	OrderCode    string          `json:"orderId" yaml:"orderId"`
	Quantity     int             `json:"quantity" yaml:"quantity"`
	Price        decimal.Decimal `json:"price" yaml:"price"`
	ProductName  string          `json:"productName" yaml:"productName"`
	BrandName    string          `json:"brandName" yaml:"brandName"`
	Season       string          `json:"season" yaml:"season"`
	Address      string          `json:"address" yaml:"address"`
	OtherAddress string          `json:"otherAddress" yaml:"otherAddress"`
	ReviewerName string          `json:"reviewerName" yaml:"reviewerName"`
	MediatorName string          `json:"mediatorName" yaml:"mediatorName"`
	Link         string          `json:"link" yaml:"link"`
}

// Placement is what the assigned user supplies when marking an order placed.
type Placement struct {
	OrderCode  string          `json:"orderCode"`
	Price      decimal.Decimal `json:"price"`
	ReceiptURL string          `json:"receiptUrl"`
}

type AllotRequest struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

type BulkAllotRequest struct {
	OrderIDs  []string `json:"orderIds"`
	UserID    string   `json:"userId"`
	UserName  string   `json:"userName"`
	UserEmail string   `json:"userEmail"`
}

type BulkAllotResponse struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	AlreadyAllotedIDs []string `json:"alreadyAllotedIds,omitempty"`
	MissingIDs        []string `json:"missingIds,omitempty"`
	ModifiedCount     int64    `json:"modifiedCount,omitempty"`
}

// BulkAllotResult is what the store reports for one atomic bulk allotment.
// When AlreadyAllotted or Missing is non-empty nothing was written.
type BulkAllotResult struct {
	AlreadyAllotted []string
	Missing         []string
	Modified        int64
}

type OrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Order   *Order `json:"order,omitempty"`
}

type OrdersResponse struct {
	Success bool     `json:"success"`
	Orders  []*Order `json:"orders"`
}

// OrderFilter narrows an order listing. Zero fields match everything.
type OrderFilter struct {
	BrandName string
	UserID    string
	Season    string
	Statuses  []OrderStatus
	// From is inclusive, To exclusive.
	From time.Time
	To   time.Time
}

// DashboardQuery is the raw brand dashboard query string.
type DashboardQuery struct {
	Season    string
	Status    string
	StartDate string
	EndDate   string
}

type BrandStats struct {
	TotalOrders     int             `json:"totalOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	AllOrders       int             `json:"allOrders"`
	PendingOrders   int             `json:"pendingOrders"`
	AllottedOrders  int             `json:"allotedOrders"`
	ConfirmedOrders int             `json:"confirmedOrders"`
}

type BrandDashboard struct {
	BrandName string     `json:"brandName"`
	Stats     BrandStats `json:"stats"`
	Orders    []*Order   `json:"orders"`
}

type BrandDashboardResponse struct {
	Success bool `json:"success"`
	*BrandDashboard
}

type BrandsResponse struct {
	Success bool     `json:"success"`
	Brands  []string `json:"brands"`
}

// PaymentHistory is what a user has placed so far.
type PaymentHistory struct {
	Orders      []*Order        `json:"orders"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	OrderCount  int             `json:"orderCount"`
}

type PaymentHistoryResponse struct {
	Success bool `json:"success"`
	*PaymentHistory
}
