package model

// AccessType names the kind of resource a grant authorizes.
type AccessType string

const (
	// AccessIncomingPayment authorizes creating incoming payments on a receiver wallet.
	AccessIncomingPayment AccessType = "incoming-payment"
	// AccessQuote authorizes creating quotes on a sender wallet.
	AccessQuote AccessType = "quote"
	// AccessOutgoingPayment authorizes moving funds out of a sender wallet.
	AccessOutgoingPayment AccessType = "outgoing-payment"

	// ActionCreate is the only action this service ever requests.
	ActionCreate = "create"
	// InteractRedirect asks the authorization server for an end-user redirect.
	InteractRedirect = "redirect"
)

// DefaultIncomingGrantTypes lists the spellings tried for incoming-payment grants.
// Some authorization servers only accept the snake_case or plural forms.
var DefaultIncomingGrantTypes = []string{
	"incoming_payment",
	"incoming-payment",
	"incoming-payments",
	"incoming_payments",
}

// AccessLimits bounds what an outgoing-payment grant may spend.
type AccessLimits struct {
	DebitAmount *Amount `json:"debitAmount,omitempty"`
}

// Access is a single entry of a grant's access list.
type Access struct {
	Type       string        `json:"type"`
	Actions    []string      `json:"actions"`
	Identifier string        `json:"identifier,omitempty"`
	Limits     *AccessLimits `json:"limits,omitempty"`
}

// AccessTokenRequest wraps the requested access list.
type AccessTokenRequest struct {
	Access []Access `json:"access"`
}

// InteractRequest asks for interaction methods up front.
type InteractRequest struct {
	Start []string `json:"start"`
}

// GrantRequest is the access request sent to an authorization server.
type GrantRequest struct {
	AccessToken AccessTokenRequest `json:"access_token"`
	Interact    *InteractRequest   `json:"interact,omitempty"`
}

// NewGrantRequest builds a create-only request for a single access type.
func NewGrantRequest(accessType AccessType) GrantRequest {
	return GrantRequest{
		AccessToken: AccessTokenRequest{
			Access: []Access{{Type: string(accessType), Actions: []string{ActionCreate}}},
		},
	}
}

// WithType returns a copy of the request whose access entries use typeName.
func (r GrantRequest) WithType(typeName string) GrantRequest {
	access := make([]Access, len(r.AccessToken.Access))
	copy(access, r.AccessToken.Access)
	for i := range access {
		access[i].Type = typeName
	}
	r.AccessToken.Access = access
	return r
}

// PrimaryType returns the type of the first access entry.
func (r GrantRequest) PrimaryType() string {
	if len(r.AccessToken.Access) == 0 {
		return ""
	}
	return r.AccessToken.Access[0].Type
}

// AccessToken is a token usable against a resource server.
type AccessToken struct {
	Value     string   `json:"value"`
	Manage    string   `json:"manage,omitempty"`
	ExpiresIn int      `json:"expires_in,omitempty"`
	Access    []Access `json:"access,omitempty"`
}

// Continuation carries what is needed to continue a pending grant.
type Continuation struct {
	URI         string      `json:"uri"`
	AccessToken AccessToken `json:"access_token"`
	Wait        int         `json:"wait,omitempty"`
}

// Interaction carries the end-user redirect for an interactive grant.
type Interaction struct {
	Redirect string `json:"redirect,omitempty"`
	Finish   string `json:"finish,omitempty"`
}

// Grant is the authorization record returned by a grant request or continuation.
// Grants are values: a continuation produces a new Grant, it never mutates one.
type Grant struct {
	AccessToken *AccessToken  `json:"access_token,omitempty"`
	Continue    *Continuation `json:"continue,omitempty"`
	Interact    *Interaction  `json:"interact,omitempty"`
}

// GrantState classifies a grant by what the caller can do with it.
type GrantState string

const (
	// GrantFinalized grants carry a usable token and no outstanding redirect.
	GrantFinalized GrantState = "finalized"
	// GrantInteractive grants require the end user to visit a redirect URL.
	GrantInteractive GrantState = "interactive"
	// GrantPending grants can only be continued.
	GrantPending GrantState = "pending"
)

// State derives the grant's variant from the fields it carries.
func (g Grant) State() GrantState {
	switch {
	case g.Redirect() != "":
		return GrantInteractive
	case g.Token() != "":
		return GrantFinalized
	default:
		return GrantPending
	}
}

// Finalized reports whether the grant can be used against a resource server.
func (g Grant) Finalized() bool {
	return g.State() == GrantFinalized
}

// Token returns the access token value, or empty string.
func (g Grant) Token() string {
	if g.AccessToken == nil {
		return ""
	}
	return g.AccessToken.Value
}

// Redirect returns the interaction redirect URL, or empty string.
func (g Grant) Redirect() string {
	if g.Interact == nil {
		return ""
	}
	return g.Interact.Redirect
}

// CanContinue reports whether the grant carries continuation details.
func (g Grant) CanContinue() bool {
	return g.Continue != nil && g.Continue.URI != ""
}

// GrantRecord is a stored grant with its local identifier.
type GrantRecord struct {
	ID    string `json:"id"`
	Grant Grant  `json:"grant"`
}
