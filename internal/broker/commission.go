package broker

// IBCommission is the Interactive Brokers fixed schedule for US stocks:
// 0.005 USD per share with a 1.00 USD minimum, capped at 1% of trade value.
func IBCommission(quantity int64, price float64) float64 {
	fee := 0.005 * float64(quantity)
	if fee < 1.0 {
		fee = 1.0
	}
	if cap := 0.01 * float64(quantity) * price; fee > cap {
		fee = cap
	}
	return fee
}

// FreeCommission charges nothing. Useful in tests and for commission-free
// broker simulations.
func FreeCommission(int64, float64) float64 {
	return 0
}
