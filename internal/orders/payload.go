package orders

import (
	"fmt"
	"time"

	"focorders/internal"
	"focorders/internal/config"
)

// SubmissionRequest is the A_SalesOrderWithoutCharge deep-insert document.
// Field order is the wire order.
type SubmissionRequest struct {
	SalesOrderWithoutChargeType string      `json:"SalesOrderWithoutChargeType"`
	SalesOrganization           string      `json:"SalesOrganization"`
	DistributionChannel         string      `json:"DistributionChannel"`
	OrganizationDivision        string      `json:"OrganizationDivision"`
	SoldToParty                 string      `json:"SoldToParty"`
	PurchaseOrderByCustomer     string      `json:"PurchaseOrderByCustomer"`
	SalesOrderWithoutChargeDate string      `json:"SalesOrderWithoutChargeDate"`
	RequestedDeliveryDate       string      `json:"RequestedDeliveryDate"`
	TransactionCurrency         string      `json:"TransactionCurrency"`
	SDDocumentReason            string      `json:"SDDocumentReason"`
	ShippingCondition           string      `json:"ShippingCondition"`
	IncotermsClassification     string      `json:"IncotermsClassification"`
	IncotermsTransferLocation   string      `json:"IncotermsTransferLocation"`
	IncotermsLocation1          string      `json:"IncotermsLocation1"`
	Items                       ItemResults `json:"to_Item"`
}

type ItemResults struct {
	Results []SubmissionItem `json:"results"`
}

type SubmissionItem struct {
	SalesOrderWithoutChargeItem  string `json:"SalesOrderWithoutChargeItem"`
	SlsOrdWthoutChrgItemCategory string `json:"SlsOrdWthoutChrgItemCategory"`
	PurchaseOrderByCustomer      string `json:"PurchaseOrderByCustomer"`
	Material                     string `json:"Material"`
	RequestedQuantity            string `json:"RequestedQuantity"`
	RequestedQuantityUnit        string `json:"RequestedQuantityUnit"`
	TransactionCurrency          string `json:"TransactionCurrency"`
	NetAmount                    string `json:"NetAmount"`
	Plant                        string `json:"Plant"`
	StorageLocation              string `json:"StorageLocation"`
	ShippingPoint                string `json:"ShippingPoint"`
}

type Builder struct {
	profile config.OrderProfile
}

func NewBuilder(profile config.OrderProfile) *Builder {
	return &Builder{profile: profile}
}

// EffectiveDate renders today's order date for the builder's civil zone.
func (b *Builder) EffectiveDate(now time.Time) string {
	return ERPDate(now, b.profile.Location())
}

func (b *Builder) Build(group internal.OrderGroup, effectiveDate string) SubmissionRequest {
	p := b.profile
	po := group.Key.PONumber

	items := make([]SubmissionItem, 0, len(group.Lines))
	for _, line := range group.Lines {
		items = append(items, SubmissionItem{
			SalesOrderWithoutChargeItem:  line.Item,
			SlsOrdWthoutChrgItemCategory: p.ItemCategory,
			PurchaseOrderByCustomer:      po,
			Material:                     line.Material,
			RequestedQuantity:            line.Qty,
			RequestedQuantityUnit:        p.UnitOfMeasure,
			TransactionCurrency:          p.Currency,
			NetAmount:                    p.NetAmount,
			Plant:                        line.Plant,
			StorageLocation:              line.StorageLocation,
			ShippingPoint:                line.ShippingPoint,
		})
	}

	return SubmissionRequest{
		SalesOrderWithoutChargeType: p.DocumentType,
		SalesOrganization:           p.SalesOrganization,
		DistributionChannel:         p.DistributionChannel,
		OrganizationDivision:        p.OrganizationDivision,
		SoldToParty:                 group.Key.SoldToParty,
		PurchaseOrderByCustomer:     po,
		SalesOrderWithoutChargeDate: effectiveDate,
		RequestedDeliveryDate:       effectiveDate,
		TransactionCurrency:         p.Currency,
		SDDocumentReason:            p.DocumentReason,
		ShippingCondition:           p.ShippingCondition,
		IncotermsClassification:     p.IncotermsClassification,
		IncotermsTransferLocation:   p.IncotermsTransferLocation,
		IncotermsLocation1:          p.IncotermsLocation1,
		Items:                       ItemResults{Results: items},
	}
}

// ERPDate truncates now to midnight in loc and formats it as an OData "/Date(ms)/" literal.
func ERPDate(now time.Time, loc *time.Location) string {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return fmt.Sprintf("/Date(%d)/", midnight.UnixMilli())
}
