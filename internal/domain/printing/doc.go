// Package printing contains the payment-gated print workflow domain:
// the PrintJob aggregate and its state machine, price quoting, the
// dispatch ledger that keeps one payment from authorizing two prints,
// and the ports implemented by the payment and printer infrastructure.
package printing
