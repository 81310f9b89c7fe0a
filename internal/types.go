package internal

// Required input columns, in the order they are reported when missing.
const (
	ColSoldToParty     = "SoldToParty"
	ColPONumber        = "PO_Number"
	ColItem            = "Item"
	ColMaterial        = "Material"
	ColQty             = "Qty"
	ColPlant           = "Plant"
	ColStorageLocation = "StorageLocation"
	ColShippingPoint   = "ShippingPoint"
)

var RequiredColumns = []string{
	ColSoldToParty, ColPONumber, ColItem, ColMaterial, ColQty,
	ColPlant, ColStorageLocation, ColShippingPoint,
}

// OrderLine is one spreadsheet row. Values are kept as the strings read from the sheet.
type OrderLine struct {
	RowNumber       int
	SoldToParty     string
	PONumber        string
	Item            string
	Material        string
	Qty             string
	Plant           string
	StorageLocation string
	ShippingPoint   string
}

type GroupKey struct {
	SoldToParty string
	PONumber    string
}

func (l OrderLine) Key() GroupKey {
	return GroupKey{SoldToParty: l.SoldToParty, PONumber: l.PONumber}
}

// OrderGroup is the unit of submission: every line shares Key.
type OrderGroup struct {
	Key   GroupKey
	Lines []OrderLine
}

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "SUCCESS"
	OutcomeFailed  OutcomeStatus = "FAILED"
)

type SubmissionOutcome struct {
	Status       OutcomeStatus
	SoldToParty  string
	PONumber     string
	ItemCount    int
	HTTPStatus   int
	OrderNumber  *string
	Error        *string
	Message      string
	PersistError *string
}

type WarehouseHeaderRecord struct {
	SalesOrderWithoutCharge     *string `json:"SalesOrderWithoutCharge"`
	SalesOrderWithoutChargeType *string `json:"SalesOrderWithoutChargeType"`
	SalesOrganization           *string `json:"SalesOrganization"`
	DistributionChannel         *string `json:"DistributionChannel"`
	OrganizationDivision        *string `json:"OrganizationDivision"`
	SoldToParty                 *string `json:"SoldToParty"`
	PurchaseOrderByCustomer     *string `json:"PurchaseOrderByCustomer"`
	SalesOrderWithoutChargeDate *string `json:"SalesOrderWithoutChargeDate"`
	RequestedDeliveryDate       *string `json:"RequestedDeliveryDate"`
	TransactionCurrency         *string `json:"TransactionCurrency"`
	OverallSDProcessStatus      *string `json:"OverallSDProcessStatus"`
	OverallTotalDeliveryStatus  *string `json:"OverallTotalDeliveryStatus"`
	RawResponse                 string  `json:"raw_response"`
	CreatedAt                   string  `json:"created_at"`
}

type WarehouseItemRecord struct {
	SalesOrderWithoutCharge     string `json:"SalesOrderWithoutCharge"`
	SalesOrderWithoutChargeItem string `json:"SalesOrderWithoutChargeItem"`
	SoldToParty                 string `json:"SoldToParty"`
	PurchaseOrderByCustomer     string `json:"PurchaseOrderByCustomer"`
	Material                    string `json:"Material"`
	RequestedQuantity           string `json:"RequestedQuantity"`
	RequestedQuantityUnit       string `json:"RequestedQuantityUnit"`
	Plant                       string `json:"Plant"`
	StorageLocation             string `json:"StorageLocation"`
	ShippingPoint               string `json:"ShippingPoint"`
	CreatedAt                   string `json:"created_at"`
}

// Email ledger statuses. A message leaves "fetched" exactly once.
const (
	EmailFetched   = "fetched"
	EmailSubmitted = "submitted"
	EmailFailed    = "failed"
	EmailSkipped   = "skipped"
)

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
