package services

// ItemInput is one requested product line at intent creation.
type ItemInput struct {
	ProductID string
	Quantity  int
	Addons    []AddonInput
}

// AddonInput is one requested addon under an item.
type AddonInput struct {
	AddonID   string
	Name      string
	Quantity  int
	UnitPrice int64
}

type CreateIntentCommand struct {
	OwnerID         string
	CustomerEmail   string
	Items           []ItemInput
	DiscountAmount  int64
	DeliveryMethod  string
	DeliveryAddress string
	DeliveryPhone   string
}

type ChargeCommand struct {
	Reference   string
	CardNumber  string
	CVV         string
	ExpiryMonth string
	ExpiryYear  string
}

type ChallengeCommand struct {
	Reference      string
	CardNumber     string
	CVV            string
	ExpiryMonth    string
	ExpiryYear     string
	PIN            string
	BillingZip     string
	BillingCity    string
	BillingAddress string
	BillingState   string
	BillingCountry string
}

type ValidateOTPCommand struct {
	Reference      string
	OTP            string
	ChallengeToken string
}

type RequestRefundCommand struct {
	OrderNumber string
	Amount      int64
	Reason      string
}
