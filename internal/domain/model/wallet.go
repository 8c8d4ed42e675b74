package model

// Wallet is a resolved wallet address.
type Wallet struct {
	ID             string `json:"id"                   yaml:"id"`
	PublicName     string `json:"publicName,omitempty" yaml:"publicName"`
	AssetCode      string `json:"assetCode"            yaml:"assetCode"`
	AssetScale     int    `json:"assetScale"           yaml:"assetScale"`
	AuthServer     string `json:"authServer"           yaml:"authServer"`
	ResourceServer string `json:"resourceServer"       yaml:"resourceServer"`
}

// Amount is an integer value in a wallet's asset and scale.
type Amount struct {
	Value      string `json:"value"`
	AssetCode  string `json:"assetCode"`
	AssetScale int    `json:"assetScale"`
}

// AmountIn denominates value in the wallet's asset.
func (w Wallet) AmountIn(value string) Amount {
	return Amount{Value: value, AssetCode: w.AssetCode, AssetScale: w.AssetScale}
}

// IncomingPaymentRequest creates an incoming payment on a receiver wallet.
type IncomingPaymentRequest struct {
	WalletAddress  string  `json:"walletAddress"`
	IncomingAmount *Amount `json:"incomingAmount,omitempty"`
}

// QuoteRequest prices a transfer from WalletAddress to Receiver.
type QuoteRequest struct {
	WalletAddress string `json:"walletAddress"`
	Receiver      string `json:"receiver"`
	Method        string `json:"method"`
}

// OutgoingPaymentRequest executes a previously created quote.
type OutgoingPaymentRequest struct {
	WalletAddress string `json:"walletAddress"`
	QuoteID       string `json:"quoteId"`
}

// QuoteMethodILP is the only payment method quotes are requested with.
const QuoteMethodILP = "ilp"
