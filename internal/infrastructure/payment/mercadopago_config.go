package payment

import (
	"errors"
	"time"
)

const defaultBaseURL = "https://api.mercadopago.com"

// MercadoPagoConfig holds the credentials and connection settings for the
// Mercado Pago Pix API
type MercadoPagoConfig struct {
	// AccessToken is the bearer token for the merchant account
	AccessToken string
	// BaseURL is the API root; overridable for sandbox and tests
	BaseURL string
	// PayerEmail identifies the payer on the Pix payment request
	PayerEmail string
	// Description appears on the payer's statement
	Description string
	// Timeout bounds each provider round trip
	Timeout time.Duration
}

// Validate checks that the configuration is usable
func (c *MercadoPagoConfig) Validate() error {
	if c.AccessToken == "" {
		return errors.New("mercadopago: access token is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Description == "" {
		c.Description = "Serviço de Impressão"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
