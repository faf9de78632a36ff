package core

import "stocktake/pkg/domain"

type (
	Product         = domain.Product
	Catalogue       = domain.Catalogue
	CartItem        = domain.CartItem
	PendingItem     = domain.PendingItem
	Order           = domain.Order
	DateRange       = domain.DateRange
	ReportRow       = domain.ReportRow
	PersistentStore = domain.PersistentStore
)

// SearchLimit caps SearchCatalogue results.
const SearchLimit = 10

// AuditEntity names the record an audited operation touched.
type AuditEntity string

const (
	EntityProduct   AuditEntity = "product"
	EntityCatalogue AuditEntity = "catalogue"
	EntityCart      AuditEntity = "cart"
	EntityOrder     AuditEntity = "order"
)

// AuditAction names what an audited operation did.
type AuditAction string

const (
	ActionCreate   AuditAction = "create"
	ActionUpdate   AuditAction = "update"
	ActionDelete   AuditAction = "delete"
	ActionImport   AuditAction = "import"
	ActionConfirm  AuditAction = "confirm"
	ActionRemove   AuditAction = "remove"
	ActionClear    AuditAction = "clear"
	ActionFinalize AuditAction = "finalize"
)

type operationMeta struct {
	entity AuditEntity
	action AuditAction
}

// auditedOperations lists the state-changing operations. Reads and pending
// item bookkeeping are traced and measured but not audited.
var auditedOperations = map[string]operationMeta{
	opAddProduct:      {EntityProduct, ActionCreate},
	opEditProduct:     {EntityProduct, ActionUpdate},
	opDeleteProduct:   {EntityProduct, ActionDelete},
	opImportCatalogue: {EntityCatalogue, ActionImport},
	opConfirmQuantity: {EntityCart, ActionConfirm},
	opRemoveCartItem:  {EntityCart, ActionRemove},
	opClearCart:       {EntityCart, ActionClear},
	opFinalizeOrder:   {EntityOrder, ActionFinalize},
}

const (
	opListCatalogue   = "list_catalogue"
	opSearchCatalogue = "search_catalogue"
	opAddProduct      = "add_product"
	opEditProduct     = "edit_product"
	opDeleteProduct   = "delete_product"
	opImportCatalogue = "import_catalogue"
	opScan            = "scan"
	opSelectProduct   = "select_product"
	opEditCartItem    = "edit_cart_item"
	opConfirmQuantity = "confirm_quantity"
	opRemoveCartItem  = "remove_cart_item"
	opClearCart       = "clear_cart"
	opFinalizeOrder   = "finalize_order"
	opReport          = "report"
	opLastOrder       = "last_order"
	opListOrders      = "list_orders"
	opListExports     = "list_exports"
)
