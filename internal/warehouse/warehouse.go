package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focorders/internal"
	"focorders/internal/erp"
	"focorders/internal/util"
)

// CreatedAtLayout matches the ISO form the header and item tables were first loaded with.
const CreatedAtLayout = "2006-01-02T15:04:05.000000"

// Writer appends rows to the header and item tables. Implementations never upsert.
type Writer interface {
	AppendHeaders(ctx context.Context, rows []internal.WarehouseHeaderRecord) error
	AppendItems(ctx context.Context, rows []internal.WarehouseItemRecord) error
}

// Gateway projects a created order into warehouse records and appends them.
type Gateway struct {
	writer Writer
	unit   string
	now    func() time.Time
}

func NewGateway(writer Writer, unitOfMeasure string) *Gateway {
	return &Gateway{writer: writer, unit: unitOfMeasure, now: time.Now}
}

// WithClock replaces the write-time clock.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

func (g *Gateway) Persist(ctx context.Context, orderNumber string, doc erp.OrderDocument, group internal.OrderGroup) error {
	if orderNumber == "" {
		return errors.New("persist: empty order number")
	}
	createdAt := g.now().UTC().Format(CreatedAtLayout)

	header := HeaderRecord(doc, createdAt)
	if header.SalesOrderWithoutCharge == nil {
		header.SalesOrderWithoutCharge = util.StringPtr(orderNumber)
	}
	if err := g.writer.AppendHeaders(ctx, []internal.WarehouseHeaderRecord{header}); err != nil {
		return fmt.Errorf("append header for order %s: %w", orderNumber, err)
	}

	items := ItemRecords(orderNumber, group, g.unit, createdAt)
	if len(items) == 0 {
		return nil
	}
	if err := g.writer.AppendItems(ctx, items); err != nil {
		return fmt.Errorf("append %d items for order %s: %w", len(items), orderNumber, err)
	}
	return nil
}

func HeaderRecord(doc erp.OrderDocument, createdAt string) internal.WarehouseHeaderRecord {
	return internal.WarehouseHeaderRecord{
		SalesOrderWithoutCharge:     doc.String("SalesOrderWithoutCharge"),
		SalesOrderWithoutChargeType: doc.String("SalesOrderWithoutChargeType"),
		SalesOrganization:           doc.String("SalesOrganization"),
		DistributionChannel:         doc.String("DistributionChannel"),
		OrganizationDivision:        doc.String("OrganizationDivision"),
		SoldToParty:                 doc.String("SoldToParty"),
		PurchaseOrderByCustomer:     doc.String("PurchaseOrderByCustomer"),
		SalesOrderWithoutChargeDate: doc.String("SalesOrderWithoutChargeDate"),
		RequestedDeliveryDate:       doc.String("RequestedDeliveryDate"),
		TransactionCurrency:         doc.String("TransactionCurrency"),
		OverallSDProcessStatus:      doc.String("OverallSDProcessStatus"),
		OverallTotalDeliveryStatus:  doc.String("OverallTotalDeliveryStatus"),
		RawResponse:                 string(doc.Raw),
		CreatedAt:                   createdAt,
	}
}

// ItemRecords builds one row per submitted line; the ERP item echo is not consulted.
func ItemRecords(orderNumber string, group internal.OrderGroup, unit, createdAt string) []internal.WarehouseItemRecord {
	out := make([]internal.WarehouseItemRecord, 0, len(group.Lines))
	for _, line := range group.Lines {
		out = append(out, internal.WarehouseItemRecord{
			SalesOrderWithoutCharge:     orderNumber,
			SalesOrderWithoutChargeItem: line.Item,
			SoldToParty:                 group.Key.SoldToParty,
			PurchaseOrderByCustomer:     group.Key.PONumber,
			Material:                    line.Material,
			RequestedQuantity:           line.Qty,
			RequestedQuantityUnit:       unit,
			Plant:                       line.Plant,
			StorageLocation:             line.StorageLocation,
			ShippingPoint:               line.ShippingPoint,
			CreatedAt:                   createdAt,
		})
	}
	return out
}
