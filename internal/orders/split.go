package orders

// splitDelivery returns the delivery-attributable portion of a cumulative
// amount paid against an order, proportional by value, rounding half up to
// the nearest peso. The remainder of the paid amount is the product
// portion, so rounding drift always lands in the product bucket.
func splitDelivery(paid, productTotal, deliveryFee int64) int64 {
	grand := productTotal + deliveryFee
	if grand <= 0 || deliveryFee <= 0 || paid <= 0 {
		return 0
	}
	if paid >= grand {
		return deliveryFee
	}
	num := paid * deliveryFee
	part := num / grand
	if (num%grand)*2 >= grand {
		part++
	}
	return part
}

// SplitPayment allocates an amount paid between the product and delivery
// buckets. prevPaid is the amount already collected for the order; the
// split is computed cumulatively so that once the order is fully paid the
// bucket totals equal the product total and delivery fee exactly.
func SplitPayment(amount, prevPaid, productTotal, deliveryFee int64) (productPart, deliveryPart int64) {
	before := splitDelivery(prevPaid, productTotal, deliveryFee)
	after := splitDelivery(prevPaid+amount, productTotal, deliveryFee)
	deliveryPart = after - before
	productPart = amount - deliveryPart
	return productPart, deliveryPart
}
