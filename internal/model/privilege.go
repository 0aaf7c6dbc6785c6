package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "sale:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivDashboardView  = "dashboard:view"
	PrivSaleView       = "sale:view"
	PrivSaleCreate     = "sale:create"
	PrivSaleExport     = "sale:export"
	PrivProductManage  = "product:manage"
	PrivCustomerManage = "customer:manage"
	PrivUserManage     = "user:manage"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivSaleView, Name: "View Sales"},
	{Code: PrivSaleCreate, Name: "Create Sale"},
	{Code: PrivSaleExport, Name: "Export Sales"},
	{Code: PrivProductManage, Name: "Manage Products and Categories"},
	{Code: PrivCustomerManage, Name: "Manage Customers"},
	{Code: PrivUserManage, Name: "Manage Users"},
}

// CashierPrivileges is what the CASHIER role receives on first seed.
var CashierPrivileges = []string{PrivDashboardView, PrivSaleView, PrivSaleCreate, PrivCustomerManage}
