package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitPaymentProportional(t *testing.T) {
	// grand 53,000 = 50,000 product + 3,000 delivery; half paid now.
	product, delivery := SplitPayment(26500, 0, 50000, 3000)
	require.EqualValues(t, 25000, product)
	require.EqualValues(t, 1500, delivery)
}

func TestSplitPaymentFullPaymentIsExact(t *testing.T) {
	product, delivery := SplitPayment(53000, 0, 50000, 3000)
	require.EqualValues(t, 50000, product)
	require.EqualValues(t, 3000, delivery)
}

func TestSplitPaymentNoDeliveryFee(t *testing.T) {
	product, delivery := SplitPayment(40000, 0, 105000, 0)
	require.EqualValues(t, 40000, product)
	require.EqualValues(t, 0, delivery)
}

func TestSplitPaymentRoundingRemainderGoesToProduct(t *testing.T) {
	// 700 * 500 / 1500 = 233.33: delivery rounds to 233, product keeps 467.
	product, delivery := SplitPayment(700, 0, 1000, 500)
	require.EqualValues(t, 467, product)
	require.EqualValues(t, 233, delivery)
	require.EqualValues(t, 700, product+delivery)
}

func TestSplitPaymentCumulativeInstalmentsSumExactly(t *testing.T) {
	const (
		productTotal = 47500
		deliveryFee  = 3000
	)
	instalments := []int64{13000, 17500, 20000}

	var paid, productSum, deliverySum int64
	for _, amount := range instalments {
		product, delivery := SplitPayment(amount, paid, productTotal, deliveryFee)
		require.EqualValues(t, amount, product+delivery)
		productSum += product
		deliverySum += delivery
		paid += amount
	}
	require.EqualValues(t, productTotal, productSum)
	require.EqualValues(t, deliveryFee, deliverySum)
}
