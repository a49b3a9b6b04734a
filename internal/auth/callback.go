package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"scango/pkg/config"
	"scango/pkg/shopify"
)

var (
	ErrMissingParameter     = errors.New("missing shop or code")
	ErrMissingConfiguration = errors.New("missing oauth configuration")
	ErrStateMismatch        = errors.New("oauth state mismatch")
	ErrShopMismatch         = errors.New("callback for unexpected shop")
)

// Stage is a step of one callback's lifecycle:
// received -> validated -> exchanged -> reported, or rejected from any step.
type Stage string

const (
	StageReceived  Stage = "received"
	StageValidated Stage = "validated"
	StageExchanged Stage = "exchanged"
	StageReported  Stage = "reported"
	StageRejected  Stage = "rejected"
)

// CallbackQuery is what the platform appends to the redirect URI.
type CallbackQuery struct {
	Shop   string
	Code   string
	State  string
	Params Params
}

func ParseCallbackQuery(rawQuery string) (CallbackQuery, error) {
	params, err := ParseParams(rawQuery)
	if err != nil {
		return CallbackQuery{}, fmt.Errorf("%w: %v", ErrMissingParameter, err)
	}
	return CallbackQuery{
		Shop:   strings.TrimSpace(params.Get("shop")),
		Code:   strings.TrimSpace(params.Get("code")),
		State:  params.Get("state"),
		Params: params,
	}, nil
}

type TokenExchanger interface {
	ExchangeCodeForToken(ctx context.Context, shopDomain, code string) (shopify.AccessToken, error)
}

type CallbackResult struct {
	Shop  string
	Scope string
	// AccessToken is never written to a response unless the reveal policy allows it.
	AccessToken string
}

type Callbacks struct {
	// Shopify supplies the app credentials. Its Shop, when set, is the only shop
	// this deployment accepts callbacks for.
	Shopify   config.ShopifyConfig
	Exchanger TokenExchanger

	// OnStage observes transitions; used for logging and metrics.
	OnStage func(Stage)
}

func (c Callbacks) enter(s Stage) {
	if c.OnStage != nil {
		c.OnStage(s)
	}
}

// Handle runs one callback to a terminal state. The signature is always verified
// before anything else is trusted, and no step is retried.
func (c Callbacks) Handle(ctx context.Context, q CallbackQuery, expectedState string) (CallbackResult, error) {
	c.enter(StageReceived)

	if q.Shop == "" || q.Code == "" {
		c.enter(StageRejected)
		return CallbackResult{}, ErrMissingParameter
	}
	if !c.Shopify.OAuthReady() || c.Exchanger == nil {
		c.enter(StageRejected)
		return CallbackResult{}, ErrMissingConfiguration
	}
	if err := checkSignature(q.Params, q.Params.Get("hmac"), c.Shopify.APISecret); err != nil {
		c.enter(StageRejected)
		return CallbackResult{}, fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	c.enter(StageValidated)

	if expectedState == "" || subtle.ConstantTimeCompare([]byte(expectedState), []byte(q.State)) != 1 {
		c.enter(StageRejected)
		return CallbackResult{}, ErrStateMismatch
	}
	if c.Shopify.Shop != "" && !strings.EqualFold(c.Shopify.Shop, q.Shop) {
		c.enter(StageRejected)
		return CallbackResult{}, ErrShopMismatch
	}

	tok, err := c.Exchanger.ExchangeCodeForToken(ctx, q.Shop, q.Code)
	if err != nil {
		c.enter(StageRejected)
		return CallbackResult{}, err
	}
	c.enter(StageExchanged)

	c.enter(StageReported)
	return CallbackResult{Shop: q.Shop, Scope: tok.Scope, AccessToken: tok.Token}, nil
}

// Outcome names the terminal state reached for err.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "reported"
	case errors.Is(err, ErrMissingParameter):
		return "rejected_missing_parameter"
	case errors.Is(err, ErrMissingConfiguration):
		return "rejected_configuration"
	case errors.Is(err, ErrSignatureMismatch):
		return "rejected_signature"
	case errors.Is(err, ErrStateMismatch), errors.Is(err, ErrShopMismatch):
		return "rejected_state"
	default:
		return "rejected_upstream"
	}
}
